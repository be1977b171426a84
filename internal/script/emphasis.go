package script

import (
	"strings"
	"sync"

	"github.com/go-text/typesetting/language"
)

// Emphasis decides whether a line should be set with emphasis.
// Implementations only affect typography, never the text itself.
type Emphasis interface {
	ClassifyEmphasis(line string, tag language.Script) bool
}

// EmphasisFunc adapts a function to the Emphasis interface.
type EmphasisFunc func(line string, tag language.Script) bool

// ClassifyEmphasis calls f.
func (f EmphasisFunc) ClassifyEmphasis(line string, tag language.Script) bool {
	return f(line, tag)
}

// NoEmphasis never emphasizes.
var NoEmphasis Emphasis = EmphasisFunc(func(string, language.Script) bool { return false })

// teluguPoeticWords are emotionally charged words common in Telugu verse.
var teluguPoeticWords = []string{
	"చైతన్య", "ఆశలు", "భావనలు", "కలలకే", "విజయం", "మనసు",
	"ఆకాశాన్ని", "మార్గమై", "కృషి", "గెలిచిన", "పుట్టిన", "నూతన",
	"మధుర", "తాకే", "పల్లకిగా", "ఆరోహణ", "సాగిపోవాలి", "మొదలవుతుంది",
}

// VocabularyEmphasis emphasizes lines containing any registered word for their script.
type VocabularyEmphasis struct {
	mu    sync.RWMutex
	words map[language.Script][]string
}

// NewVocabularyEmphasis returns an empty registry.
func NewVocabularyEmphasis() *VocabularyEmphasis {
	return &VocabularyEmphasis{words: make(map[language.Script][]string)}
}

// DefaultVocabulary returns a registry preloaded with the built-in vocabularies.
func DefaultVocabulary() *VocabularyEmphasis {
	v := NewVocabularyEmphasis()
	v.Register(language.Telugu, teluguPoeticWords...)
	return v
}

// Register adds words to the vocabulary of a script.
func (v *VocabularyEmphasis) Register(tag language.Script, words ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			v.words[tag] = append(v.words[tag], w)
		}
	}
}

// ClassifyEmphasis implements Emphasis.
func (v *VocabularyEmphasis) ClassifyEmphasis(line string, tag language.Script) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, w := range v.words[tag] {
		if strings.Contains(line, w) {
			return true
		}
	}
	return false
}

var defaultVocabulary = DefaultVocabulary()

// IsPoeticLine reports whether line matches the built-in vocabulary for tag.
func IsPoeticLine(line string, tag language.Script) bool {
	return defaultVocabulary.ClassifyEmphasis(line, tag)
}
