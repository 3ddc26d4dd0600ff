package collators

import (
	"os"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/cfgmap"
	"github.com/custodia-labs/sercha-indexer/internal/collators/calendar"
	"github.com/custodia-labs/sercha-indexer/internal/collators/drive"
	"github.com/custodia-labs/sercha-indexer/internal/collators/dropbox"
	"github.com/custodia-labs/sercha-indexer/internal/collators/filesystem"
	"github.com/custodia-labs/sercha-indexer/internal/collators/github"
	"github.com/custodia-labs/sercha-indexer/internal/collators/gmail"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Environment variables read for tokens unless a source sets token_env.
const (
	DefaultGitHubTokenEnv  = "GITHUB_TOKEN"
	DefaultDriveTokenEnv   = "GOOGLE_DRIVE_TOKEN"
	DefaultGoogleTokenEnv  = "GOOGLE_ACCESS_TOKEN"
	DefaultDropboxTokenEnv = "DROPBOX_TOKEN"
)

// RegisterDefaults registers the built-in collator kinds.
func RegisterDefaults(r *Registry) {
	r.Register("filesystem", buildFilesystem)
	r.Register("github", buildGitHub)
	r.Register("drive", buildDrive)
	r.Register("calendar", buildCalendar)
	r.Register("gmail", buildGmail)
	r.Register("dropbox", buildDropbox)
}

// buildFilesystem supports:
//   - path (string): root directory (required)
//   - patterns ([]string): file name patterns
//   - location_prefix (string): prefix of document locations
//   - max_file_size (int): bytes
func buildFilesystem(cfg map[string]any) (driven.Collator, error) {
	return filesystem.New(filesystem.Config{
		Root:           cfgmap.String(cfg, "path", ""),
		Patterns:       cfgmap.Strings(cfg, "patterns"),
		LocationPrefix: cfgmap.String(cfg, "location_prefix", ""),
		MaxFileSize:    int64(cfgmap.Int(cfg, "max_file_size", 0)),
	})
}

// buildGitHub supports:
//   - repos ([]string): owner/name (required)
//   - state (string): open, closed or all
//   - labels ([]string)
//   - base_url (string): GitHub Enterprise
//   - token_env (string): variable holding the token
//   - requests_per_second (float)
func buildGitHub(cfg map[string]any) (driven.Collator, error) {
	return github.New(github.Config{
		Token:             os.Getenv(cfgmap.String(cfg, "token_env", DefaultGitHubTokenEnv)),
		Repos:             cfgmap.Strings(cfg, "repos"),
		State:             cfgmap.String(cfg, "state", ""),
		Labels:            cfgmap.Strings(cfg, "labels"),
		BaseURL:           cfgmap.String(cfg, "base_url", ""),
		RequestsPerSecond: cfgmap.Float(cfg, "requests_per_second", 0),
	})
}

// buildDrive supports:
//   - folder_ids ([]string)
//   - mime_types ([]string)
//   - page_size (int)
//   - endpoint (string)
//   - token_env (string): variable holding the access token
func buildDrive(cfg map[string]any) (driven.Collator, error) {
	return drive.New(drive.Config{
		Token:             os.Getenv(cfgmap.String(cfg, "token_env", DefaultDriveTokenEnv)),
		FolderIDs:         cfgmap.Strings(cfg, "folder_ids"),
		MimeTypes:         cfgmap.Strings(cfg, "mime_types"),
		PageSize:          int64(cfgmap.Int(cfg, "page_size", 0)),
		Endpoint:          cfgmap.String(cfg, "endpoint", ""),
		RequestsPerSecond: cfgmap.Float(cfg, "requests_per_second", 0),
	}), nil
}

const day = 24 * time.Hour

// buildCalendar supports:
//   - calendar_ids ([]string): defaults to primary
//   - look_back_days, look_ahead_days (int)
//   - endpoint (string)
//   - token_env (string): variable holding the access token
func buildCalendar(cfg map[string]any) (driven.Collator, error) {
	return calendar.New(calendar.Config{
		Token:             os.Getenv(cfgmap.String(cfg, "token_env", DefaultGoogleTokenEnv)),
		CalendarIDs:       cfgmap.Strings(cfg, "calendar_ids"),
		LookBack:          time.Duration(cfgmap.Int(cfg, "look_back_days", 0)) * day,
		LookAhead:         time.Duration(cfgmap.Int(cfg, "look_ahead_days", 0)) * day,
		Endpoint:          cfgmap.String(cfg, "endpoint", ""),
		RequestsPerSecond: cfgmap.Float(cfg, "requests_per_second", 0),
	}), nil
}

// buildGmail supports:
//   - label_ids ([]string): defaults to INBOX
//   - query (string): Gmail search query
//   - max_messages (int)
//   - include_spam_trash (bool)
//   - endpoint (string)
//   - token_env (string): variable holding the access token
func buildGmail(cfg map[string]any) (driven.Collator, error) {
	return gmail.New(gmail.Config{
		Token:             os.Getenv(cfgmap.String(cfg, "token_env", DefaultGoogleTokenEnv)),
		LabelIDs:          cfgmap.Strings(cfg, "label_ids"),
		Query:             cfgmap.String(cfg, "query", ""),
		MaxMessages:       cfgmap.Int(cfg, "max_messages", 0),
		IncludeSpamTrash:  cfgmap.Bool(cfg, "include_spam_trash", false),
		Endpoint:          cfgmap.String(cfg, "endpoint", ""),
		RequestsPerSecond: cfgmap.Float(cfg, "requests_per_second", 0),
	}), nil
}

// buildDropbox supports:
//   - path (string): folder, defaults to the account root
//   - extensions ([]string): indexed by content
//   - max_file_size (int): bytes
//   - token_env (string): variable holding the access token
func buildDropbox(cfg map[string]any) (driven.Collator, error) {
	return dropbox.New(dropbox.Config{
		Token:       os.Getenv(cfgmap.String(cfg, "token_env", DefaultDropboxTokenEnv)),
		Path:        cfgmap.String(cfg, "path", ""),
		Extensions:  cfgmap.Strings(cfg, "extensions"),
		MaxFileSize: uint64(max(cfgmap.Int(cfg, "max_file_size", 0), 0)),
	})
}
