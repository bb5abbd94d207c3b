package daemon

import (
	"context"
	"fmt"
	"os"

	"signcast/internal/api"
	"signcast/internal/dictionary"
)

// Health checks every component the daemon depends on.
func (d *Daemon) Health(ctx context.Context) api.HealthResponse {
	components := []api.ComponentHealth{
		d.checkToolkit(ctx),
		d.checkDatabase(ctx),
		d.checkDirectory("clip_library", d.cfg.Paths.ClipLibraryDir),
		d.checkDirectory("temp_dir", d.cfg.Paths.TempDir),
		d.checkDirectory("media_dir", d.cfg.Paths.MediaDir),
		d.checkDictionary(ctx),
	}

	healthy := true
	for _, component := range components {
		if !component.Healthy {
			healthy = false
			break
		}
	}
	return api.HealthResponse{Healthy: healthy, Components: components}
}

func (d *Daemon) checkToolkit(ctx context.Context) api.ComponentHealth {
	if !d.toolkit.Available(ctx) {
		return api.ComponentHealth{Name: "ffmpeg", Detail: "ffmpeg not found on PATH"}
	}
	return api.ComponentHealth{Name: "ffmpeg", Healthy: true}
}

func (d *Daemon) checkDatabase(ctx context.Context) api.ComponentHealth {
	if err := d.db.Ping(ctx); err != nil {
		return api.ComponentHealth{Name: "database", Detail: err.Error()}
	}
	return api.ComponentHealth{Name: "database", Healthy: true}
}

func (d *Daemon) checkDirectory(name, dir string) api.ComponentHealth {
	info, err := os.Stat(dir)
	if err != nil {
		return api.ComponentHealth{Name: name, Detail: err.Error()}
	}
	if !info.IsDir() {
		return api.ComponentHealth{Name: name, Detail: dir + " is not a directory"}
	}
	return api.ComponentHealth{Name: name, Healthy: true}
}

func (d *Daemon) checkDictionary(ctx context.Context) api.ComponentHealth {
	stats, err := d.dictionary.Statistics(ctx)
	if err != nil {
		return api.ComponentHealth{Name: "dictionary", Detail: err.Error()}
	}
	if stats.TotalClips == 0 {
		return api.ComponentHealth{Name: "dictionary", Detail: "no sign clips ingested"}
	}
	detail := fmt.Sprintf("%d clips across %d avatar models", stats.TotalClips, len(dictionary.AvatarModels()))
	return api.ComponentHealth{Name: "dictionary", Healthy: true, Detail: detail}
}
