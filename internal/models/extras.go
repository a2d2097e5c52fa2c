package models

import "encoding/json"

// keySet lists the JSON keys a record type models itself.
type keySet map[string]struct{}

func newKeySet(keys ...string) keySet {
	ks := make(keySet, len(keys))
	for _, k := range keys {
		ks[k] = struct{}{}
	}
	return ks
}

// splitExtra returns the keys of the JSON object in data that are not in
// known, or nil when there are none.
func splitExtra(data []byte, known keySet) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// mergeExtra adds extra to the JSON object in data. Modelled keys always
// win over a stale copy in extra.
func mergeExtra(data []byte, extra map[string]json.RawMessage, known keySet) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := known[k]; ok {
			continue
		}
		all[k] = v
	}
	return json.Marshal(all)
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
