package embedding

// Special token ids shared by protein language models.
const (
	PadToken = 0
	ClsToken = 1
	EosToken = 2
	UnkToken = 3
)

// AminoAlphabet lists the 20 standard residues; residue i maps to token id i+4.
const AminoAlphabet = "ACDEFGHIKLMNPQRSTVWY"

// Tokenizer produces token ids for a residue sequence.
type Tokenizer interface {
	Tokenize(sequence string, maxLength int) (inputIDs, attentionMask []int64)
}

// AminoTokenizer maps one residue to one token and wraps the sequence in CLS/EOS.
type AminoTokenizer struct{}

var aminoIDs = func() map[rune]int64 {
	m := make(map[rune]int64, len(AminoAlphabet))
	for i, r := range AminoAlphabet {
		m[r] = int64(i + 4)
	}
	return m
}()

// Tokenize encodes sequence and pads or truncates the result to maxLength.
// Residues outside the standard alphabet become UnkToken.
func (t *AminoTokenizer) Tokenize(sequence string, maxLength int) (inputIDs, attentionMask []int64) {
	if maxLength <= 2 {
		maxLength = 512
	}
	inputIDs = make([]int64, maxLength)
	attentionMask = make([]int64, maxLength)

	inputIDs[0] = ClsToken
	attentionMask[0] = 1

	pos := 1
	for _, r := range sequence {
		if pos >= maxLength-1 {
			break
		}
		id, ok := aminoIDs[r]
		if !ok {
			id = UnkToken
		}
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = EosToken
	attentionMask[pos] = 1
	return inputIDs, attentionMask
}

// HashString returns a deterministic non-negative hash.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
