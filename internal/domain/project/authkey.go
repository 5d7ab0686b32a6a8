package project

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AuthKind enumerates the ways we authenticate against a project's git remote.
type AuthKind string

const (
	AuthGitCredentialsHelper AuthKind = "gitCredentialsHelper"
	AuthLocal                AuthKind = "local"
	AuthSystemExecutable     AuthKind = "systemExecutable"
)

// AuthKey is the preferred authentication mechanism of a project.
//
// On the wire the unit variants are bare strings and the local variant is
// {"local": {"privateKeyPath": "..."}}. There used to be more variants; any tag
// we no longer know decodes to the system executable and is kept in legacy.
type AuthKey struct {
	Kind           AuthKind
	PrivateKeyPath string

	legacy string
}

func GitCredentialsHelper() AuthKey { return AuthKey{Kind: AuthGitCredentialsHelper} }

func SystemExecutable() AuthKey { return AuthKey{Kind: AuthSystemExecutable} }

// LocalKey uses the private key file at path.
func LocalKey(path string) AuthKey {
	return AuthKey{Kind: AuthLocal, PrivateKeyPath: path}
}

// Legacy returns the unrecognized tag this key was decoded from, if any.
func (k AuthKey) Legacy() (string, bool) {
	return k.legacy, k.legacy != ""
}

func (k AuthKey) String() string {
	if k.Kind == AuthLocal {
		return fmt.Sprintf("local(%s)", k.PrivateKeyPath)
	}
	return string(k.Kind)
}

type localKeyPayload struct {
	PrivateKeyPath string `json:"privateKeyPath"`
}

func (k AuthKey) MarshalJSON() ([]byte, error) {
	switch k.Kind {
	case AuthLocal:
		return json.Marshal(map[string]localKeyPayload{
			string(AuthLocal): {PrivateKeyPath: k.PrivateKeyPath},
		})
	case AuthGitCredentialsHelper:
		return json.Marshal(string(AuthGitCredentialsHelper))
	case AuthSystemExecutable, "":
		return json.Marshal(string(AuthSystemExecutable))
	default:
		return nil, fmt.Errorf("unknown auth key kind %q", k.Kind)
	}
}

func (k *AuthKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("preferredKey: empty value")
	}

	switch data[0] {
	case '"':
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return fmt.Errorf("preferredKey: %w", err)
		}
		switch AuthKind(tag) {
		case AuthGitCredentialsHelper, AuthSystemExecutable:
			*k = AuthKey{Kind: AuthKind(tag)}
		default:
			*k = AuthKey{Kind: AuthSystemExecutable, legacy: tag}
		}
		return nil
	case '{':
		var variants map[string]json.RawMessage
		if err := json.Unmarshal(data, &variants); err != nil {
			return fmt.Errorf("preferredKey: %w", err)
		}
		if len(variants) != 1 {
			return fmt.Errorf("preferredKey: expected exactly one variant, got %d", len(variants))
		}
		for tag, body := range variants {
			if AuthKind(tag) != AuthLocal {
				*k = AuthKey{Kind: AuthSystemExecutable, legacy: tag}
				return nil
			}
			var payload localKeyPayload
			if err := json.Unmarshal(body, &payload); err != nil {
				return fmt.Errorf("preferredKey.local: %w", err)
			}
			if payload.PrivateKeyPath == "" {
				return fmt.Errorf("preferredKey.local: missing privateKeyPath")
			}
			*k = LocalKey(payload.PrivateKeyPath)
		}
		return nil
	default:
		return fmt.Errorf("preferredKey: unexpected JSON %s", string(data))
	}
}

// ParseAuthKey builds a key from its tag. path is only used by the local variant.
func ParseAuthKey(kind, path string) (AuthKey, error) {
	switch AuthKind(kind) {
	case AuthGitCredentialsHelper:
		return GitCredentialsHelper(), nil
	case AuthSystemExecutable:
		return SystemExecutable(), nil
	case AuthLocal:
		if path == "" {
			return AuthKey{}, fmt.Errorf("%w: local key requires a private key path", ErrInvalidInput)
		}
		return LocalKey(path), nil
	default:
		return AuthKey{}, fmt.Errorf("%w: unknown auth key %q", ErrInvalidInput, kind)
	}
}
