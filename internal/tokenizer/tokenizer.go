// Package tokenizer adapts the external SentencePiece toolchain. Encoding
// runs in-process through a pure-Go SentencePiece implementation; training
// shells out to the spm_train binary. The rest of the system treats both
// as black boxes: encode is deterministic for a fixed model, and token
// pieces concatenate back to the input once boundary markers are stripped.
package tokenizer

import "context"

// Encoder turns text into an ordered sequence of subword token pieces.
type Encoder interface {
	// EncodeTokens tokenizes text and returns the token pieces in order.
	// Pieces may carry the SentencePiece word-boundary marker (U+2581) and
	// byte-fallback pieces of the form <0xHH>.
	EncodeTokens(text string) ([]string, error)
}

// Trainer induces a subword vocabulary from a corpus artifact and returns
// a handle (the model file path) usable to construct an Encoder.
type Trainer interface {
	Train(ctx context.Context, cfg TrainConfig) (string, error)
}
