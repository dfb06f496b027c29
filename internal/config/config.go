package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version  int               `toml:"version"`
	Models   map[string]string `toml:"models"`
	Summary  SummaryConfig     `toml:"summary"`
	Image    ImageConfig       `toml:"image"`
	Quality  QualityConfig     `toml:"quality"`
	Dedup    DedupConfig       `toml:"dedup"`
	Mirrors  MirrorConfig      `toml:"mirrors"`
	Tonality TonalityConfig    `toml:"tonality"`
	Limits   LimitsConfig      `toml:"limits"`
	Publish  PublishConfig     `toml:"publish"`
	Scraping ScrapingConfig    `toml:"scraping"`
}

type SummaryConfig struct {
	Provider          string            `toml:"provider"` // "openai" or "anthropic"
	SystemInstruction string            `toml:"system_instruction"`
	Instructions      map[string]string `toml:"instructions"`
}

type ImageConfig struct {
	Disabled bool              `toml:"disabled"`
	Model    string            `toml:"model"`
	Size     string            `toml:"size"`
	Quality  string            `toml:"quality"`
	Style    string            `toml:"style"`
	Prompts  map[string]string `toml:"prompts"`
}

type QualityConfig struct {
	MinEngagementTotal int      `toml:"min_engagement_total"`
	MinLikes           int      `toml:"min_likes"`
	MinQualityScore    float64  `toml:"min_quality_score"`
	Keywords           []string `toml:"keywords"`
}

type DedupConfig struct {
	CacheDays     int    `toml:"cache_days"`
	MinTextLength int    `toml:"min_text_length"`
	CacheFile     string `toml:"cache_file"`
}

type MirrorConfig struct {
	Instances []string `toml:"instances"`
}

// Category binds a keyword list to a presentation style. Categories are
// declared as an ordered TOML array; ties between categories are broken
// by declaration order, so the order here is part of the contract.
type Category struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
	Style    string   `toml:"style"`
}

type TonalityConfig struct {
	DefaultStyle           string     `toml:"default_style"`
	ControversialThreshold float64    `toml:"controversial_threshold"`
	Categories             []Category `toml:"categories"`
}

type LimitsConfig struct {
	MaxAccountsPerRun int `toml:"max_accounts_per_run"`
	PostsPerAccount   int `toml:"posts_per_account"`
	CandidateDelaySec int `toml:"candidate_delay_sec"`
	PublishDelaySec   int `toml:"publish_delay_sec"`
}

type PublishConfig struct {
	Footer string `toml:"footer"`
}

type ScrapingConfig struct {
	Headless bool `toml:"headless"`
}

// Default returns a Config with the stock satire-bot settings
func Default() *Config {
	return &Config{
		Version: 1,
		Models: map[string]string{
			"default":       "gpt-4o",
			"gpt-4":         "gpt-4",
			"gpt-4o":        "gpt-4o",
			"gpt-3.5-turbo": "gpt-3.5-turbo",
		},
		Summary: SummaryConfig{
			Provider: "openai",
			SystemInstruction: "Du bist ein satirischer Content-Creator für RabbitResearch, der Tweets und Nachrichten " +
				"mit einem kritischen, provokanten Stil analysiert. Beginne mit einer provokanten Überschrift, " +
				"verwende einen direkten, scharfen Ton mit satirischen Elementen, strukturiere den Text mit Emojis " +
				"und Aufzählungszeichen (👉), behalte wichtige Fakten bei und schließe mit einem kurzen, " +
				"ironischen Schlusssatz.",
			Instructions: map[string]string{
				"default":       "Erstelle eine satirische, direkte Zusammenfassung im Stil eines kritischen Meme-Kommentars. Verwende einen scharfen, provokativen Ton mit Emojis und Aufzählungszeichen.",
				"neutral":       "Fasse diesen Tweet kurz und prägnant in maximal 3 Sätzen zusammen. Behalte die wichtigsten Informationen bei und achte auf einen neutralen Ton.",
				"kritisch":      "Erstelle eine satirische, kritische Zusammenfassung mit einer provokanten Überschrift, gefolgt von 2-3 knackigen Punkten mit Emojis. Betone das Absurde oder Widersprüchliche.",
				"sehr_kritisch": "Erstelle eine scharfe, kompromisslos satirische Zusammenfassung mit einer provokanten Überschrift und 3 bissigen Punkten mit Emojis. Lege den Finger direkt in die Wunde.",
				"positiv":       "Erstelle eine enthusiastische, aber leicht ironische Zusammenfassung. Beginne mit einer positiven Überschrift und füge 2-3 Punkte mit Emojis hinzu.",
				"detailliert":   "Erstelle eine ausführlichere satirische Analyse. Beginne mit einer provokanten Überschrift, gefolgt von 3-4 Punkten mit Emojis und schließe mit einem ironischen Fazit ab.",
			},
		},
		Image: ImageConfig{
			Model:   "dall-e-3",
			Size:    "1024x1024",
			Quality: "standard",
			Style:   "vivid",
			Prompts: map[string]string{
				"default":     "Erstelle ein realistisches, detailliertes Bild, das die folgende Nachricht illustriert: '{text}'. Das Bild sollte informativ und sachlich sein, ohne politische Symbole oder kontroverse Elemente.",
				"politik":     "Erstelle ein symbolisches, neutrales Bild zu diesem politischen Thema: '{text}'. Verwende Metaphern und Symbole, aber keine realen Politiker oder Parteisymbole.",
				"wirtschaft":  "Erstelle ein informatives Bild zum Wirtschaftsthema: '{text}'. Zeige relevante Grafiken, Symbole oder Konzepte, die das Thema veranschaulichen.",
				"technologie": "Erstelle ein futuristisches, technisches Bild zum Thema: '{text}'. Zeige innovative Technologien oder Konzepte in einem modernen Design.",
				"gesundheit":  "Erstelle ein informatives, medizinisch korrektes Bild zum Gesundheitsthema: '{text}'. Das Bild sollte bildend und sachlich sein.",
			},
		},
		Quality: QualityConfig{
			MinEngagementTotal: 10,
			MinLikes:           5,
			MinQualityScore:    0.3,
			Keywords:           []string{"analyse", "studie", "forschung", "erklärt", "wichtig", "neu"},
		},
		Dedup: DedupConfig{
			CacheDays:     7,
			MinTextLength: 15,
			CacheFile:     "processed_posts.json",
		},
		Mirrors: MirrorConfig{
			Instances: []string{
				"https://nitter.net",
				"https://nitter.privacydev.net",
				"https://nitter.poast.org",
				"https://nitter.unixfox.eu",
			},
		},
		Tonality: TonalityConfig{
			DefaultStyle:           "default",
			ControversialThreshold: 0.5,
			Categories: []Category{
				{
					Name:     "politik",
					Keywords: []string{"politik", "regierung", "bundestag", "wahl", "partei", "minister", "kanzler", "gesetz"},
					Style:    "kritisch",
				},
				{
					Name:     "wirtschaft",
					Keywords: []string{"wirtschaft", "inflation", "börse", "aktien", "steuern", "energie", "konzern"},
					Style:    "detailliert",
				},
				{
					Name:     "technologie",
					Keywords: []string{"ki", "technologie", "software", "roboter", "chip", "raumfahrt", "digital"},
					Style:    "neutral",
				},
				{
					Name:     "gesundheit",
					Keywords: []string{"gesundheit", "impf", "virus", "medizin", "pandemie", "krankenhaus"},
					Style:    "neutral",
				},
			},
		},
		Limits: LimitsConfig{
			MaxAccountsPerRun: 5,
			PostsPerAccount:   3,
			CandidateDelaySec: 2,
			PublishDelaySec:   1,
		},
		Publish: PublishConfig{
			Footer: "auf telegram (http://t.me/rabbitresearch) 👉auf substack (https://rabbitresearch.substack.com/) 👉auf X (https://twitter.com/real___rabbit)",
		},
		Scraping: ScrapingConfig{
			Headless: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "satirebot"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "satirebot"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DedupCachePath resolves the duplicate record store location. A bare
// filename in the config is placed under the cache directory.
func (c *Config) DedupCachePath() (string, error) {
	if filepath.IsAbs(c.Dedup.CacheFile) {
		return c.Dedup.CacheFile, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Dedup.CacheFile), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// Model resolves a model choice key, falling back to "default" for
// unknown keys.
func (c *Config) Model(key string) string {
	if m, ok := c.Models[key]; ok {
		return m
	}
	return c.Models["default"]
}

// Instruction resolves an instruction choice key, falling back to
// "default" for unknown keys.
func (c *Config) Instruction(key string) string {
	if instr, ok := c.Summary.Instructions[key]; ok {
		return instr
	}
	return c.Summary.Instructions["default"]
}

// ImagePrompt resolves a topic-keyed image prompt template, falling back
// to "default" for unknown topics.
func (c *Config) ImagePrompt(topic string) string {
	if p, ok := c.Image.Prompts[topic]; ok {
		return p
	}
	return c.Image.Prompts["default"]
}
