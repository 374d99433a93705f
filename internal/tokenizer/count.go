package tokenizer

import (
	"errors"
	"fmt"
)

// CountDocument counts the tokens of a rendered document.
func CountDocument(counter Counter, document string) (int, error) {
	if counter == nil {
		return 0, errors.New("nil tokenizer counter")
	}
	tokens, countError := counter.CountString(document)
	if countError != nil {
		return 0, fmt.Errorf("count tokens with %s: %w", counter.Name(), countError)
	}
	return tokens, nil
}
