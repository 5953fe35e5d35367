package json

import (
	"encoding/json"
	"fmt"
	"io"
)

func SerializeBody[T any](body T) ([]byte, error) {
	bytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("serialize %T: %w", body, err)
	}
	return bytes, nil
}

func DeserializeBody[T any](body []byte) (T, error) {
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return *new(T), fmt.Errorf("deserialize %T: %w", result, err)
	}
	return result, nil
}

// WriteIndent : 결과 파일용 들여쓰기 JSON
func WriteIndent[T any](w io.Writer, body T) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
