package render

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

// 32-bit Words
type WordsUint32 []uint32

func NewWordsUint32(b []byte) WordsUint32 {
	r := bytes.NewReader(b)
	words := make([]uint32, len(b)/4)
	binary.Read(r, binary.LittleEndian, words)
	return WordsUint32(words)
}

func (words WordsUint32) Sizeof() uint64 {
	return uint64(len(words) * 4)
}

// ParseSPIRV checks that b looks like a SPIR-V module and returns its words.
func ParseSPIRV(b []byte) (WordsUint32, error) {
	switch {
	case len(b) == 0:
		return nil, errors.New("empty shader binary")
	case len(b)%4 != 0:
		return nil, errors.Errorf("shader binary size %d is not a multiple of 4", len(b))
	case len(b) < 20:
		return nil, errors.Errorf("shader binary size %d is shorter than a SPIR-V header", len(b))
	}
	words := NewWordsUint32(b)
	if words[0] != SPIRVMagic {
		return nil, errors.Errorf("bad SPIR-V magic %#08x", words[0])
	}
	return words, nil
}

// LoadSPIRV reads and checks a compiled shader. Failures are
// ShaderCompilation errors.
func LoadSPIRV(path string) (WordsUint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fail(ShaderCompilation, "read "+path, err)
	}
	words, err := ParseSPIRV(b)
	if err != nil {
		return nil, fail(ShaderCompilation, "parse "+path, err)
	}
	return words, nil
}

// loadShader returns the words of one stage: the file at path when set,
// the embedded code otherwise.
func loadShader(stage, path string, code []byte) (WordsUint32, error) {
	if path != "" {
		return LoadSPIRV(path)
	}
	words, err := ParseSPIRV(code)
	if err != nil {
		return nil, fail(ShaderCompilation, "parse embedded "+stage+" shader", err)
	}
	return words, nil
}
