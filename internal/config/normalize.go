package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.ClipLibraryDir, err = expandPath(c.Paths.ClipLibraryDir); err != nil {
		return err
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return err
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Translation.URL = strings.TrimRight(strings.TrimSpace(c.Translation.URL), "/")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	targets := make([]string, 0, len(c.Translation.TargetLanguages))
	for _, lang := range c.Translation.TargetLanguages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang != "" {
			targets = append(targets, lang)
		}
	}
	c.Translation.TargetLanguages = targets

	if c.Resolver.Synonyms != nil {
		synonyms := make(map[string]string, len(c.Resolver.Synonyms))
		for variant, canonical := range c.Resolver.Synonyms {
			variant = strings.ToLower(strings.TrimSpace(variant))
			canonical = strings.ToLower(strings.TrimSpace(canonical))
			if variant != "" && canonical != "" {
				synonyms[variant] = canonical
			}
		}
		c.Resolver.Synonyms = synonyms
	}

	return nil
}
