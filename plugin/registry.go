package plugin

import "fmt"

// Histories is a global map of HistoryAdapter plugins.
var Histories = map[string]func(path string) (HistoryAdapter, error){
	"badger": func(path string) (HistoryAdapter, error) {
		return NewBadgerHistory(path, DefaultBatchSize)
	},
	"jsonl": func(path string) (HistoryAdapter, error) {
		return NewJSONLHistory(path)
	},
}

func HistoryLookup(name, path string) (HistoryAdapter, error) {
	factory, ok := Histories[name]
	if !ok {
		return nil, fmt.Errorf("unknown history store: %s", name)
	}
	return factory(path)
}
