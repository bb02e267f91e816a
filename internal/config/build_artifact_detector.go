// Build tree detection from C/C++ build system files
// Reads CMakePresets.json, marker files of configured build trees and
// Cargo.toml of mixed projects to find output directories
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// markers identify a directory as a configured build tree.
var buildTreeMarkers = []string{"CMakeCache.txt", "build.ninja", "meson-info", "compile_commands.json"}

// BuildArtifactDetector finds build output directories of a project.
type BuildArtifactDetector struct {
	projectRoot string
}

func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns exclusion globs such as "**/build-debug/**".
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string
	patterns = append(patterns, bad.detectCMakePresets()...)
	patterns = append(patterns, bad.detectBuildTrees()...)
	patterns = append(patterns, bad.detectCargoOutputs()...)
	return DeduplicatePatterns(patterns)
}

// detectCMakePresets reads binaryDir of every configure preset.
func (bad *BuildArtifactDetector) detectCMakePresets() []string {
	var patterns []string
	for _, name := range []string{"CMakePresets.json", "CMakeUserPresets.json"} {
		data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
		if err != nil {
			continue
		}
		var presets struct {
			ConfigurePresets []struct {
				BinaryDir string `json:"binaryDir"`
			} `json:"configurePresets"`
		}
		if json.Unmarshal(data, &presets) != nil {
			continue
		}
		for _, p := range presets.ConfigurePresets {
			if dir := presetDir(p.BinaryDir); dir != "" {
				patterns = append(patterns, "**/"+dir+"/**")
			}
		}
	}
	return patterns
}

// presetDir reduces "${sourceDir}/out/build/${presetName}" to its first
// literal directory, "out".
func presetDir(binaryDir string) string {
	binaryDir = strings.TrimPrefix(binaryDir, "${sourceDir}/")
	for _, part := range strings.Split(filepath.ToSlash(binaryDir), "/") {
		if part == "" || part == "." || strings.Contains(part, "${") {
			continue
		}
		return part
	}
	return ""
}

// detectBuildTrees finds top-level directories holding a configured build.
func (bad *BuildArtifactDetector) detectBuildTrees() []string {
	entries, err := os.ReadDir(bad.projectRoot)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, m := range buildTreeMarkers {
			if _, err := os.Stat(filepath.Join(bad.projectRoot, e.Name(), m)); err == nil {
				patterns = append(patterns, e.Name()+"/**")
				break
			}
		}
	}
	return patterns
}

// detectCargoOutputs covers C++ projects that also build Rust crates.
func (bad *BuildArtifactDetector) detectCargoOutputs() []string {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var cargo struct {
		Build struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"build"`
	}
	if toml.Unmarshal(data, &cargo) != nil {
		return nil
	}
	dir := cargo.Build.TargetDir
	if dir == "" {
		dir = "target"
	}
	return []string{"**/" + dir + "/**"}
}

// DeduplicatePatterns removes duplicate patterns, keeping the first.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}
	return result
}
