package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/talewright/talewright/sdk/go/testutil"
)

func drain(t require.TestingT, r *Reader) []string {
	var frames []string
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, frame)
	}
}

func TestReaderSplitsOnBlankLine(t *testing.T) {
	body := "event: token\ndata: {\"text\":\"a\"}\n\nevent: token\ndata: {\"text\":\"b\"}\n\n"
	frames := drain(t, NewReader(strings.NewReader(body)))
	assert.Equal(t, []string{
		"event: token\ndata: {\"text\":\"a\"}",
		"event: token\ndata: {\"text\":\"b\"}",
	}, frames)
}

func TestReaderDropsTrailingPartialFrame(t *testing.T) {
	body := "event: token\ndata: {\"text\":\"a\"}\n\nevent: token\ndata: {\"text\":\"x\"}\n"
	r := NewReader(strings.NewReader(body))
	frames := drain(t, r)
	assert.Equal(t, []string{"event: token\ndata: {\"text\":\"a\"}"}, frames)
	assert.Empty(t, r.Pending(), "partial frame must be discarded at EOF")
}

func TestReaderEmitsEmptyFramesBetweenExtraTerminators(t *testing.T) {
	frames := drain(t, NewReader(strings.NewReader("data: 1\n\n\n\ndata: 2\n\n")))
	assert.Equal(t, []string{"data: 1", "", "data: 2"}, frames)
}

func TestReaderTerminatorSplitAcrossReads(t *testing.T) {
	body := []byte("data: {}\n\ndata: []\n\n")
	// split between the two newlines of the first terminator
	r := NewReader(testutil.SplitAt(body, 9))
	assert.Equal(t, []string{"data: {}", "data: []"}, drain(t, r))
}

func TestReaderZeroByteReads(t *testing.T) {
	body := []byte("data: {}\n\n")
	r := NewReader(testutil.NewChunkedReader(body, 0, 3, 0, 0, 4, 0))
	assert.Equal(t, []string{"data: {}"}, drain(t, r))
}

func TestReaderMultiByteRuneSplitAcrossReads(t *testing.T) {
	body := []byte("data: {\"text\":\"héllo 🐸\"}\n\n")
	for offset := 0; offset <= len(body); offset++ {
		frames := drain(t, NewReader(testutil.SplitAt(body, offset)))
		require.Len(t, frames, 1, "offset %d", offset)
		assert.Equal(t, "data: {\"text\":\"héllo 🐸\"}", frames[0], "offset %d", offset)
	}
}

func TestReaderInvalidUTF8BecomesReplacementChar(t *testing.T) {
	body := []byte("data: \"a\xffb\"\n\n")
	frames := drain(t, NewReader(testutil.ByteAtATime(body)))
	require.Len(t, frames, 1)
	assert.Equal(t, "data: \"a�b\"", frames[0])
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) > 0 {
		n := copy(p, f.data)
		f.data = f.data[n:]
		return n, nil
	}
	return 0, f.err
}

func TestReaderSurfacesReadError(t *testing.T) {
	sentinel := errors.New("connection reset")
	r := NewReader(&failingReader{data: []byte("data: {}\n\ndata: "), err: sentinel})

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "data: {}", frame)

	_, err = r.Next()
	require.ErrorIs(t, err, sentinel)
}

// lastReadFails returns all of data in one read together with err.
type lastReadFails struct {
	data []byte
	err  error
}

func (l *lastReadFails) Read(p []byte) (int, error) {
	if len(l.data) == 0 {
		return 0, l.err
	}
	n := copy(p, l.data)
	l.data = l.data[n:]
	if len(l.data) == 0 {
		return n, l.err
	}
	return n, nil
}

func TestReaderReturnsFramesReadAlongsideError(t *testing.T) {
	r := NewReader(&lastReadFails{
		data: []byte("data: {\"a\":1}\n\ndata: {\"b\":2}\n\npartial"),
		err:  io.ErrUnexpectedEOF,
	})

	var frames []string
	var err error
	for {
		var frame string
		frame, err = r.Next()
		if err != nil {
			break
		}
		frames = append(frames, frame)
	}
	assert.Equal(t, []string{"data: {\"a\":1}", "data: {\"b\":2}"}, frames)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Empty(t, r.Pending())
}

func TestReaderLargeFrameInSmallReads(t *testing.T) {
	payload := strings.Repeat("x", 64*1024)
	body := "data: \"" + payload + "\"\n\ndata: {}\n\n"
	r := NewReaderSize(strings.NewReader(body), 7)
	frames := drain(t, r)
	require.Len(t, frames, 2)
	assert.Equal(t, "data: \""+payload+"\"", frames[0])
	assert.Equal(t, "data: {}", frames[1])
}

func TestReaderFramesInvariantUnderSplits_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payloads := rapid.SliceOfN(rapid.StringMatching(`[a-zA-Z0-9 é🐸]{0,12}`), 1, 8).Draw(t, "payloads")
		var whole strings.Builder
		var want []string
		for _, p := range payloads {
			frame := "event: token\ndata: " + p
			want = append(want, frame)
			whole.WriteString(frame + "\n\n")
		}
		data := []byte(whole.String())

		sizes := rapid.SliceOfN(rapid.IntRange(0, 7), 0, len(data)).Draw(t, "sizes")
		got := drain(t, NewReaderSize(testutil.NewChunkedReader(data, sizes...), rapid.IntRange(1, 64).Draw(t, "readSize")))
		assert.Equal(t, want, got)
	})
}
