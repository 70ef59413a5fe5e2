package speech

import "context"

// Recognizer turns 16kHz mono 16-bit PCM audio into text.
type Recognizer interface {
	Transcribe(ctx context.Context, pcm []byte) (string, error)
}

// Synthesizer turns text into 16kHz mono 16-bit PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
