// Package config loads and validates the tokeval configuration from
// defaults, an optional config file, environment variables, and CLI flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-tokeval/internal/text"
)

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Trainer   TrainerConfig   `mapstructure:"trainer"`
	LogLevel  string          `mapstructure:"log_level"`
}

type PathsConfig struct {
	InputDir     string `mapstructure:"input_dir"`
	CorpusPath   string `mapstructure:"corpus_path"`
	ModelSaveDir string `mapstructure:"model_save_dir"`
	ModelPrefix  string `mapstructure:"model_prefix"`
	TrainerPath  string `mapstructure:"trainer_path"`
}

type CorpusConfig struct {
	SampleSize        int    `mapstructure:"sample_size"`
	MaxSentenceLength int    `mapstructure:"max_sentence_length"`
	Seed              int64  `mapstructure:"seed"`
	Workers           int    `mapstructure:"workers"`
	CSVTextColumn     string `mapstructure:"csv_text_column"`
}

type NormalizeConfig struct {
	Form               string `mapstructure:"form"`
	CollapseWhitespace bool   `mapstructure:"collapse_whitespace"`
	SeparatorPunct     string `mapstructure:"separator_punct"`
	FoldQuotes         bool   `mapstructure:"fold_quotes"`
	FoldCase           bool   `mapstructure:"fold_case"`
	FoldDigits         bool   `mapstructure:"fold_digits"`
}

type TrainerConfig struct {
	VocabSize         int     `mapstructure:"vocab_size"`
	ModelType         string  `mapstructure:"model_type"`
	CharacterCoverage float64 `mapstructure:"character_coverage"`
	NormRule          string  `mapstructure:"norm_rule"`
	ByteFallback      bool    `mapstructure:"byte_fallback"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			InputDir:     "data",
			CorpusPath:   "corpus.txt",
			ModelSaveDir: "tokenizer_models",
			ModelPrefix:  "tokenizer",
			TrainerPath:  "",
		},
		Corpus: CorpusConfig{
			SampleSize:        0,
			MaxSentenceLength: 4096,
			Seed:              0,
			Workers:           1,
			CSVTextColumn:     "",
		},
		Normalize: NormalizeConfig{
			Form:               text.FormNFKC,
			CollapseWhitespace: true,
			SeparatorPunct:     "",
			FoldQuotes:         false,
			FoldCase:           false,
			FoldDigits:         false,
		},
		Trainer: TrainerConfig{
			VocabSize:         16000,
			ModelType:         ModelUnigram,
			CharacterCoverage: 0.9995,
			NormRule:          "nmt_nfkc",
			ByteFallback:      false,
		},
		LogLevel: "info",
	}
}

// Rules maps the normalization section onto the text package rule set.
func (c Config) Rules() text.Rules {
	return text.Rules{
		Form:               c.Normalize.Form,
		CollapseWhitespace: c.Normalize.CollapseWhitespace,
		SeparatorPunct:     c.Normalize.SeparatorPunct,
		FoldQuotes:         c.Normalize.FoldQuotes,
		FoldCase:           c.Normalize.FoldCase,
		FoldDigits:         c.Normalize.FoldDigits,
	}
}

// Validate rejects invalid configurations before any processing starts.
func (c Config) Validate() error {
	if c.Trainer.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be positive, got %d", c.Trainer.VocabSize)
	}
	if cc := c.Trainer.CharacterCoverage; cc <= 0 || cc > 1 {
		return fmt.Errorf("character_coverage must be in (0, 1], got %g", cc)
	}
	if _, err := NormalizeModelType(c.Trainer.ModelType); err != nil {
		return err
	}
	if c.Corpus.SampleSize < 0 {
		return fmt.Errorf("sample_size must not be negative, got %d", c.Corpus.SampleSize)
	}
	if c.Corpus.MaxSentenceLength < 0 {
		return fmt.Errorf("max_sentence_length must not be negative, got %d", c.Corpus.MaxSentenceLength)
	}
	if c.Corpus.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Corpus.Workers)
	}
	switch strings.ToLower(c.Normalize.Form) {
	case "", text.FormNFC, text.FormNFKC:
	default:
		return fmt.Errorf("normalize form must be %s or %s, got %q", text.FormNFC, text.FormNFKC, c.Normalize.Form)
	}
	return nil
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("input-dir", defaults.Paths.InputDir, "Directory containing txt/md/csv input files")
	fs.String("corpus-path", defaults.Paths.CorpusPath, "Merged corpus artifact path")
	fs.String("model-save-dir", defaults.Paths.ModelSaveDir, "Directory for trained tokenizer models")
	fs.String("model-prefix", defaults.Paths.ModelPrefix, "Trained model file prefix")
	fs.String("trainer-path", defaults.Paths.TrainerPath, "Path to the spm_train binary (default: resolve from PATH)")
	fs.Int("sample-size", defaults.Corpus.SampleSize, "Reservoir-sample the corpus down to this many lines (0 keeps all)")
	fs.Int("max-sentence-length", defaults.Corpus.MaxSentenceLength, "Drop normalized lines longer than this many bytes (0 keeps all)")
	fs.Int64("seed", defaults.Corpus.Seed, "Sampling seed; fixed seeds reproduce the artifact byte for byte")
	fs.Int("workers", defaults.Corpus.Workers, "Concurrent per-file build workers")
	fs.String("csv-text-column", defaults.Corpus.CSVTextColumn, "CSV column holding text, by header name (default: first column)")
	fs.String("normalize-form", defaults.Normalize.Form, "Unicode normalization form (nfc|nfkc, empty to skip)")
	fs.Bool("normalize-collapse-whitespace", defaults.Normalize.CollapseWhitespace, "Collapse whitespace runs and trim lines")
	fs.String("normalize-separator-punct", defaults.Normalize.SeparatorPunct, "Punctuation runes detached as standalone separator tokens")
	fs.Bool("normalize-fold-quotes", defaults.Normalize.FoldQuotes, "Fold typographic quotes to straight ASCII quotes")
	fs.Bool("normalize-fold-case", defaults.Normalize.FoldCase, "Lower-case all text")
	fs.Bool("normalize-fold-digits", defaults.Normalize.FoldDigits, "Fold script-specific digit glyphs to ASCII digits")
	fs.Int("vocab-size", defaults.Trainer.VocabSize, "Target vocabulary size")
	fs.String("model-type", defaults.Trainer.ModelType, "Subword model type (unigram|bpe|word|char)")
	fs.Float64("character-coverage", defaults.Trainer.CharacterCoverage, "Trainer character coverage in (0, 1]")
	fs.String("norm-rule", defaults.Trainer.NormRule, "Trainer-side normalization rule name")
	fs.Bool("byte-fallback", defaults.Trainer.ByteFallback, "Encode unseen characters as raw byte tokens")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("TOKEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tokeval")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.input_dir", c.Paths.InputDir)
	v.SetDefault("paths.corpus_path", c.Paths.CorpusPath)
	v.SetDefault("paths.model_save_dir", c.Paths.ModelSaveDir)
	v.SetDefault("paths.model_prefix", c.Paths.ModelPrefix)
	v.SetDefault("paths.trainer_path", c.Paths.TrainerPath)
	v.SetDefault("corpus.sample_size", c.Corpus.SampleSize)
	v.SetDefault("corpus.max_sentence_length", c.Corpus.MaxSentenceLength)
	v.SetDefault("corpus.seed", c.Corpus.Seed)
	v.SetDefault("corpus.workers", c.Corpus.Workers)
	v.SetDefault("corpus.csv_text_column", c.Corpus.CSVTextColumn)
	v.SetDefault("normalize.form", c.Normalize.Form)
	v.SetDefault("normalize.collapse_whitespace", c.Normalize.CollapseWhitespace)
	v.SetDefault("normalize.separator_punct", c.Normalize.SeparatorPunct)
	v.SetDefault("normalize.fold_quotes", c.Normalize.FoldQuotes)
	v.SetDefault("normalize.fold_case", c.Normalize.FoldCase)
	v.SetDefault("normalize.fold_digits", c.Normalize.FoldDigits)
	v.SetDefault("trainer.vocab_size", c.Trainer.VocabSize)
	v.SetDefault("trainer.model_type", c.Trainer.ModelType)
	v.SetDefault("trainer.character_coverage", c.Trainer.CharacterCoverage)
	v.SetDefault("trainer.norm_rule", c.Trainer.NormRule)
	v.SetDefault("trainer.byte_fallback", c.Trainer.ByteFallback)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps each config key to its CLI flag. Every key gets an
// explicit binding so defaults, config-file values, and environment
// variables resolve even when a flag was never set.
var flagKeys = map[string]string{
	"paths.input_dir":                "input-dir",
	"paths.corpus_path":              "corpus-path",
	"paths.model_save_dir":           "model-save-dir",
	"paths.model_prefix":             "model-prefix",
	"paths.trainer_path":             "trainer-path",
	"corpus.sample_size":             "sample-size",
	"corpus.max_sentence_length":     "max-sentence-length",
	"corpus.seed":                    "seed",
	"corpus.workers":                 "workers",
	"corpus.csv_text_column":         "csv-text-column",
	"normalize.form":                 "normalize-form",
	"normalize.collapse_whitespace":  "normalize-collapse-whitespace",
	"normalize.separator_punct":      "normalize-separator-punct",
	"normalize.fold_quotes":          "normalize-fold-quotes",
	"normalize.fold_case":            "normalize-fold-case",
	"normalize.fold_digits":          "normalize-fold-digits",
	"trainer.vocab_size":             "vocab-size",
	"trainer.model_type":             "model-type",
	"trainer.character_coverage":     "character-coverage",
	"trainer.norm_rule":              "norm-rule",
	"trainer.byte_fallback":          "byte-fallback",
	"log_level":                      "log-level",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}
