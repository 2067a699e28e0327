package bridge

import "github.com/neutonm/Amber-Launcher-sub000/internal/scripthost"

// UIFunc is the single native UI entry point reachable from scripts through
// UICall. The returned bundle becomes a script table.
type UIFunc func(id string, args []scripthost.Var) (map[string]scripthost.Var, error)

// SettingsStore persists launcher key/value settings.
type SettingsStore interface {
	SetKey(key, value string) error
	GetKey(key string) (value string, ok bool, err error)
}

// ArchiveExtractor unpacks an archive into a directory.
type ArchiveExtractor interface {
	Extract(archivePath, destDir string) error
}

// AudioConverter transcodes an MP3 file into a WAV file next to it and
// returns the path written.
type AudioConverter interface {
	ConvertMP3ToWAV(path string) (string, error)
}

// INIStore keeps parsed INI files behind integer handles.
type INIStore interface {
	Load(path string) (handle int, err error)
	Close(handle int) bool
	Get(handle int, section, key string) (value string, ok bool)
}

// Collaborators are the optional native services scripts may reach. A nil
// field makes the matching script function report failure.
type Collaborators struct {
	Settings SettingsStore
	Archive  ArchiveExtractor
	Audio    AudioConverter
	INI      INIStore
}
