package ingestion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 20
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// chunkNamespace derives stable chunk ids so re-ingesting a file overwrites
// its previous vectors instead of duplicating them.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("medibot/chunks"))

// Splitter cuts text on the coarsest separator that occurs in it, recursing
// into finer separators for pieces that are still too long. Each separator
// stays attached to the start of the piece that follows it, and pieces are
// merged back without adding anything, so chunks keep the source's own
// whitespace. Lengths are counted in runes.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &Splitter{ChunkSize: size, ChunkOverlap: overlap, Separators: defaultSeparators}
}

func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.Separators)
}

// SplitDocuments splits each document separately; overlap never crosses a
// document boundary.
func (s *Splitter) SplitDocuments(docs []Document) []vectorstore.Chunk {
	chunks := make([]vectorstore.Chunk, 0, len(docs))
	for _, doc := range docs {
		for idx, text := range s.SplitText(doc.Content) {
			chunks = append(chunks, vectorstore.Chunk{
				ID:     chunkID(doc.Source, doc.Page, idx),
				Text:   text,
				Source: doc.Source,
				Page:   doc.Page,
				Index:  idx,
			})
		}
	}
	return chunks
}

func chunkID(source string, page, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d#%d", source, page, index))).String()
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var out, pending []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if utf8.RuneCountInString(piece) < s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, s.merge(pending)...)
			pending = nil
		}
		if len(finer) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, finer)...)
		}
	}
	if len(pending) > 0 {
		out = append(out, s.merge(pending)...)
	}
	return out
}

// merge packs pieces into chunks of at most ChunkSize runes, carrying up to
// ChunkOverlap runes of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var docs, current []string
	total := 0
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.ChunkOverlap || (total+n > s.ChunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepingSeparator splits text on separator and prefixes every piece
// but the first with it. Empty pieces are dropped. An empty separator splits
// into runes.
func splitKeepingSeparator(text, separator string) []string {
	parts := strings.Split(text, separator)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = separator + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
