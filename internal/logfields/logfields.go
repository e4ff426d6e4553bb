package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyDir        = "dir"
	KeyTemplate   = "template"
	KeyPage       = "page"
	KeyPages      = "pages"
	KeyAssets     = "assets"
	KeyAddr       = "addr"
	KeyPort       = "port"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyResponseSz = "response_size"
	KeyRemoteAddr = "remote_addr"
	KeyURL        = "url"
	KeyClients    = "clients"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Assets(n int) slog.Attr          { return slog.Int(KeyAssets, n) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Port(p int) slog.Attr            { return slog.Int(KeyPort, p) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func ResponseSize(n int) slog.Attr    { return slog.Int(KeyResponseSz, n) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Clients(n int) slog.Attr         { return slog.Int(KeyClients, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
