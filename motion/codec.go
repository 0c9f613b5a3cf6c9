package motion

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes a motion record
func Marshal(p Params) ([]byte, error) {
	data, err := msgpack.Marshal(&p)
	if err != nil {
		return nil, fmt.Errorf("motion: marshal %s record: %w", p.Model, err)
	}
	return data, nil
}

// Unmarshal decodes a motion record. Unknown keys are skipped.
func Unmarshal(data []byte) (Params, error) {
	var p Params
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("motion: unmarshal record: %w", err)
	}
	return p, nil
}
