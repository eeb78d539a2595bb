package config

import (
	"fmt"
	"strings"
)

// The closed set of subword model types the external trainer supports.
// Nothing outside this package branches on the model type; the rest of
// the system only ever forwards the normalized value to the trainer.
const (
	ModelUnigram = "unigram"
	ModelBPE     = "bpe"
	ModelWord    = "word"
	ModelChar    = "char"
)

// NormalizeModelType canonicalizes raw and rejects anything outside the
// supported set. Empty input defaults to unigram.
func NormalizeModelType(raw string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(raw))
	if mt == "" {
		mt = ModelUnigram
	}
	switch mt {
	case ModelUnigram, ModelBPE, ModelWord, ModelChar:
		return mt, nil
	default:
		return "", fmt.Errorf(
			"invalid model_type %q (expected %s|%s|%s|%s)",
			raw,
			ModelUnigram,
			ModelBPE,
			ModelWord,
			ModelChar,
		)
	}
}
