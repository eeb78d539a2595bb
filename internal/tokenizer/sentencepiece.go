package tokenizer

import (
	"errors"
	"fmt"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// ErrEmptyPath is returned when NewSentencePieceEncoder is called with an empty path.
var ErrEmptyPath = errors.New("tokenizer model path must not be empty")

// SentencePieceEncoder implements Encoder using a pure-Go SentencePiece model.
type SentencePieceEncoder struct {
	proc gosp.Sentencepiece
}

// NewSentencePieceEncoder loads a trained SentencePiece model from the given path.
func NewSentencePieceEncoder(modelPath string) (*SentencePieceEncoder, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	proc, err := gosp.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", modelPath, err)
	}

	return &SentencePieceEncoder{proc: proc}, nil
}

// EncodeTokens tokenizes text and returns the token pieces in order.
func (e *SentencePieceEncoder) EncodeTokens(text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}

	tokens := e.proc.Tokenize(text)

	pieces := make([]string, len(tokens))
	for i, tok := range tokens {
		pieces[i] = tok.Text
	}

	return pieces, nil
}
