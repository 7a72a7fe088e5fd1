package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ChapterTitlesConfig struct {
		Enable        bool       `yaml:"enable"`
		StyleTxt      TitleStyle `yaml:"style_txt" validate:"oneof=inline separated"`
		LabelTemplate string     `yaml:"label_template"`
	}

	TextConfig struct {
		EmDashToHyphen     bool         `yaml:"em_dash_to_hyphen"`
		SanitizeWhitespace bool         `yaml:"sanitize_whitespace"`
		Newlines           NewlinesMode `yaml:"newlines" validate:"oneof=keep one two"`
	}

	TOCConfig struct {
		// Keep retains table of contents supplied by the book itself.
		Keep bool `yaml:"keep"`
		// ChaptersTOC adds generated anchor TOC of converted chapters.
		ChaptersTOC bool `yaml:"chapters_toc"`
	}

	SplitConfig struct {
		Enable        bool          `yaml:"enable"`
		FileNameStyle FileNameStyle `yaml:"file_name_style" validate:"oneof=same chapter custom"`
		CustomPrefix  string        `yaml:"custom_prefix" validate:"required_if=FileNameStyle custom"`
		IndexTOC      bool          `yaml:"index_toc"`
		BackLink      bool          `yaml:"back_link"`
		PrevNext      bool          `yaml:"prev_next"`
	}

	HTMLConfig struct {
		Style     HTMLStyle `yaml:"style" validate:"oneof=minimal styled"`
		StylePath string    `yaml:"style_path" sanitize:"assure_file_access"`
	}

	WebAppConfig struct {
		ChapterNewPage bool `yaml:"chapter_new_page"`
	}

	ImagesConfig struct {
		Optimize              bool `yaml:"optimize"`
		MaxWidth              int  `yaml:"max_width" validate:"gte=0"`
		JPEGQuality           int  `yaml:"jpeg_quality" validate:"min=40,max=100"`
		RasterizeSVG          bool `yaml:"rasterize_svg"`
		SVGWidth              int  `yaml:"svg_width" validate:"gte=0"`
		RemovePNGTransparency bool `yaml:"remove_png_transparency"`
	}

	DocumentConfig struct {
		IncludeImages         bool                `yaml:"include_images"`
		Images                ImagesConfig        `yaml:"images"`
		FileNameTransliterate bool                `yaml:"file_name_transliterate"`
		ExtractionFooter      bool                `yaml:"extraction_footer"`
		Locale                string              `yaml:"locale" validate:"required,bcp47_language_tag"`
		ChapterTitles         ChapterTitlesConfig `yaml:"chapter_titles"`
		Text                  TextConfig          `yaml:"text"`
		TOC                   TOCConfig           `yaml:"toc"`
		Split                 SplitConfig         `yaml:"split"`
		HTML                  HTMLConfig          `yaml:"html"`
		WebApp                WebAppConfig        `yaml:"webapp"`
	}

	LocalStorageConfig struct {
		BasePath string `yaml:"base_path" sanitize:"path_clean" validate:"omitempty,dirpath"`
	}

	S3StorageConfig struct {
		Bucket       string       `yaml:"bucket" validate:"required"`
		Region       string       `yaml:"region"`
		Endpoint     string       `yaml:"endpoint" validate:"omitempty,url"`
		AccessKey    string       `yaml:"access_key"`
		SecretKey    SecretString `yaml:"secret_key"`
		UsePathStyle bool         `yaml:"use_path_style"`
	}

	PublishConfig struct {
		Kind   StorageKind        `yaml:"kind" validate:"oneof=none local s3"`
		Prefix string             `yaml:"prefix"`
		Local  LocalStorageConfig `yaml:"local"`
		S3     *S3StorageConfig   `yaml:"s3,omitempty" validate:"required_if=Kind s3"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Publish   PublishConfig  `yaml:"publish"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	LabelTemplateFieldName TemplateFieldName = "label_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(LabelTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
