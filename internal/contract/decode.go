package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"

	"lpAnalytics/internal/model"
)

// DecodeLog decodes a raw log of the given event into an EventRecord.
func DecodeLog(event abi.Event, log types.Log) (model.EventRecord, error) {
	topics := log.Topics
	if !event.Anonymous {
		if len(topics) == 0 {
			return model.EventRecord{}, fmt.Errorf("missing topics")
		}
		if topics[0] != event.ID {
			return model.EventRecord{}, fmt.Errorf("topic0 %s does not match event %s", topics[0].Hex(), event.Name)
		}
		topics = topics[1:]
	}

	indexed := indexedArguments(event.Inputs)
	if len(topics) != len(indexed) {
		return model.EventRecord{}, fmt.Errorf("expected %d indexed topics, got %d", len(indexed), len(topics))
	}

	args := make(map[string]interface{}, len(event.Inputs))
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, topics); err != nil {
			return model.EventRecord{}, fmt.Errorf("parse topics: %w", err)
		}
	}
	if len(event.Inputs.NonIndexed()) > 0 {
		if err := event.Inputs.NonIndexed().UnpackIntoMap(args, log.Data); err != nil {
			return model.EventRecord{}, fmt.Errorf("unpack %s: %w", event.Name, err)
		}
	}

	names := make([]string, 0, len(event.Inputs))
	for _, input := range event.Inputs {
		names = append(names, input.Name)
	}

	return model.EventRecord{
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		TxIndex:     log.TxIndex,
		LogIndex:    log.Index,
		Address:     log.Address,
		EventName:   event.Name,
		Args:        args,
		ArgNames:    names,
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
