package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile on top of base and validates the result.
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Load(path string, base *Profile) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read profile: %w", err)
	}

	p, err := Parse(data, base)
	if err != nil {
		return nil, data, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, data, nil
}

// Parse decodes YAML onto a copy of base (Default() when nil)
func Parse(data []byte, base *Profile) (*Profile, error) {
	if base == nil {
		base = Default()
	}
	p := *base
	p.ExcludedColumns = append([]string(nil), base.ExcludedColumns...)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Hash is the sha256 of the profile's canonical JSON.
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(p *Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
