package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// FallbackFamily is the core PDF font used when no font file can be loaded.
const FallbackFamily = "Helvetica"

// Horizontal alignment of text lines.
const (
	AlignLeft   = "L"
	AlignCenter = "C"
	AlignRight  = "R"
)

// FontProfile maps a language to a font file and body style.
type FontProfile struct {
	Lang   string `yaml:"-"`
	Family string `yaml:"family"`
	// File is the preferred font file; Alternates are tried in order when it is missing.
	File       string   `yaml:"file"`
	Alternates []string `yaml:"alternates"`
	ItalicFile string   `yaml:"italic_file"`

	Size       float64 `yaml:"size"`
	Leading    float64 `yaml:"leading"`
	SpaceAfter float64 `yaml:"space_after"`
	Indent     float64 `yaml:"indent"` // applied on both sides
	Align      string  `yaml:"align"`
	Color      string  `yaml:"color"`
}

// defaultProfile is the body style used for languages set in Latin-compatible fonts.
var defaultProfile = FontProfile{
	Family:     FallbackFamily,
	Size:       11,
	Leading:    14,
	SpaceAfter: 12,
	Align:      AlignLeft,
	Color:      "#34495e",
}

// DefaultProfiles returns the built-in language table.
func DefaultProfiles() map[string]FontProfile {
	notoSans := func(lang string) FontProfile {
		p := defaultProfile
		p.Lang = lang
		p.Family = "NotoSans"
		p.File = "NotoSans-Regular.ttf"
		p.ItalicFile = "NotoSans-Italic.ttf"
		return p
	}

	hi := defaultProfile
	hi.Lang = "hi"
	hi.Family = "NotoSansDevanagari"
	hi.File = "NotoSansDevanagari-Regular.ttf"

	te := FontProfile{
		Lang:       "te",
		Family:     "NotoSerifTelugu",
		File:       "NotoSerifTelugu-Regular.ttf",
		Alternates: []string{"NotoSansTelugu-Regular.ttf"},
		Size:       13,
		Leading:    20,
		SpaceAfter: 16,
		Indent:     10,
		Align:      AlignLeft,
		Color:      "#2c3e50",
	}

	return map[string]FontProfile{
		"hi": hi,
		"te": te,
		"ar": notoSans("ar"),
		"zh": notoSans("zh"),
		"ja": notoSans("ja"),
		"ko": notoSans("ko"),
		"ru": notoSans("ru"),
	}
}

// ProfileFor returns the profile for lang from profiles, or the default style.
func ProfileFor(profiles map[string]FontProfile, lang string) FontProfile {
	if p, ok := profiles[types.NormalizeLanguageCode(lang)]; ok {
		return p
	}
	p := defaultProfile
	p.Lang = lang
	return p
}

// LoadProfileOverrides reads a YAML map of language code to profile and merges
// it over base. Zero fields in an override keep the base value.
func LoadProfileOverrides(path string, base map[string]FontProfile) (map[string]FontProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to read font profile file", err)
	}

	var overrides map[string]FontProfile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to parse font profile file", err)
	}

	out := make(map[string]FontProfile, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for lang, o := range overrides {
		lang = types.NormalizeLanguageCode(lang)
		p := ProfileFor(out, lang)
		p.Lang = lang
		mergeProfile(&p, o)
		out[lang] = p
	}
	return out, nil
}

func mergeProfile(dst *FontProfile, o FontProfile) {
	if o.Family != "" {
		dst.Family = o.Family
	}
	if o.File != "" {
		dst.File = o.File
	}
	if len(o.Alternates) > 0 {
		dst.Alternates = o.Alternates
	}
	if o.ItalicFile != "" {
		dst.ItalicFile = o.ItalicFile
	}
	if o.Size > 0 {
		dst.Size = o.Size
	}
	if o.Leading > 0 {
		dst.Leading = o.Leading
	}
	if o.SpaceAfter > 0 {
		dst.SpaceAfter = o.SpaceAfter
	}
	if o.Indent > 0 {
		dst.Indent = o.Indent
	}
	if o.Align != "" {
		dst.Align = o.Align
	}
	if o.Color != "" {
		dst.Color = o.Color
	}
}

// FontResource is a parsed TrueType font file.
type FontResource struct {
	Path string
	Data []byte
	font *sfnt.Font
}

// NumGlyphs returns the number of glyphs in the font.
func (f *FontResource) NumGlyphs() int {
	return f.font.NumGlyphs()
}

// Covers reports whether the font has a glyph for every rune in s.
func (f *FontResource) Covers(s string) bool {
	var buf sfnt.Buffer
	for _, r := range s {
		idx, err := f.font.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			return false
		}
	}
	return true
}

// FontLoader loads font files.
type FontLoader interface {
	LoadFont(path string) (*FontResource, error)
}

// FileFontLoader reads fonts from the local filesystem.
type FileFontLoader struct{}

// LoadFont reads and parses the font at path.
func (FileFontLoader) LoadFont(path string) (*FontResource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewFontLoadError(path, err)
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, types.NewFontLoadError(path, err)
	}
	return &FontResource{Path: path, Data: data, font: f}, nil
}

// sampleText holds characters each script's font is expected to cover.
var sampleText = map[string]string{
	"hi": "कखग",
	"te": "కఖగ",
	"ar": "ابت",
	"ru": "абв",
	"zh": "中文",
	"ja": "あア",
	"ko": "한글",
}

// ResolvedFont is the font selection for one language.
type ResolvedFont struct {
	Profile FontProfile
	Regular *FontResource // nil means the core fallback family
	Italic  *FontResource
	// FellBack is set when the profile names a font file that could not be loaded.
	FellBack bool
}

// Family returns the font family name to register with the PDF writer.
func (r ResolvedFont) Family() string {
	if r.Regular == nil {
		return FallbackFamily
	}
	return r.Profile.Family
}

// FontRegistryConfig configures a FontRegistry.
type FontRegistryConfig struct {
	Directory string
	Profiles  map[string]FontProfile // nil uses DefaultProfiles
	Loader    FontLoader             // nil uses FileFontLoader
	Logger    logger.Logger
}

// FontRegistry resolves and caches fonts per language.
// Each language is loaded at most once, even under concurrent Resolve calls.
type FontRegistry struct {
	dir      string
	profiles map[string]FontProfile
	loader   FontLoader
	log      logger.Logger

	group    singleflight.Group
	mu       sync.RWMutex
	resolved map[string]ResolvedFont
}

// NewFontRegistry creates a FontRegistry.
func NewFontRegistry(cfg FontRegistryConfig) *FontRegistry {
	if cfg.Profiles == nil {
		cfg.Profiles = DefaultProfiles()
	}
	if cfg.Loader == nil {
		cfg.Loader = FileFontLoader{}
	}
	return &FontRegistry{
		dir:      cfg.Directory,
		profiles: cfg.Profiles,
		loader:   cfg.Loader,
		log:      logger.OrGlobal(cfg.Logger),
		resolved: make(map[string]ResolvedFont),
	}
}

// Profile returns the profile configured for lang.
func (r *FontRegistry) Profile(lang string) FontProfile {
	return ProfileFor(r.profiles, lang)
}

// Resolve returns the font for lang. Missing or unreadable font files fall back
// to the core family; Resolve never fails.
func (r *FontRegistry) Resolve(lang string) ResolvedFont {
	lang = types.NormalizeLanguageCode(lang)

	r.mu.RLock()
	res, ok := r.resolved[lang]
	r.mu.RUnlock()
	if ok {
		return res
	}

	v, _, _ := r.group.Do(lang, func() (interface{}, error) {
		r.mu.RLock()
		res, ok := r.resolved[lang]
		r.mu.RUnlock()
		if ok {
			return res, nil
		}

		res = r.load(lang)
		r.mu.Lock()
		r.resolved[lang] = res
		r.mu.Unlock()
		return res, nil
	})
	return v.(ResolvedFont)
}

func (r *FontRegistry) load(lang string) ResolvedFont {
	profile := r.Profile(lang)
	res := ResolvedFont{Profile: profile}
	if profile.File == "" {
		return res
	}

	for _, name := range append([]string{profile.File}, profile.Alternates...) {
		font, err := r.loader.LoadFont(r.path(name))
		if err != nil {
			r.log.Warn("font unavailable", logger.String("lang", lang), logger.String("file", name), logger.Err(err))
			continue
		}
		res.Regular = font
		break
	}

	if res.Regular == nil {
		r.log.Warn("using fallback font",
			logger.String("lang", lang),
			logger.String("preferred", profile.Family),
			logger.String("fallback", FallbackFamily))
		res.FellBack = true
		return res
	}

	if sample, ok := sampleText[lang]; ok && !res.Regular.Covers(sample) {
		r.log.Warn("font lacks glyphs for target script",
			logger.String("lang", lang),
			logger.String("file", res.Regular.Path))
	}

	if profile.ItalicFile != "" {
		if italic, err := r.loader.LoadFont(r.path(profile.ItalicFile)); err == nil {
			res.Italic = italic
		} else {
			r.log.Debug("italic face unavailable", logger.String("lang", lang), logger.Err(err))
		}
	}

	r.log.Info("font resolved",
		logger.String("lang", lang),
		logger.String("family", profile.Family),
		logger.String("file", res.Regular.Path),
		logger.Int("glyphs", res.Regular.NumGlyphs()))
	return res
}

func (r *FontRegistry) path(name string) string {
	if filepath.IsAbs(name) || r.dir == "" {
		return name
	}
	return filepath.Join(r.dir, name)
}

// parseHexColor converts "#rrggbb" to RGB components.
func parseHexColor(s string) (int, int, int, error) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}
