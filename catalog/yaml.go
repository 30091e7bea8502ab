package catalog

import (
	"fmt"
	"os"

	"github.com/rushteam/melorank/core"
	"gopkg.in/yaml.v3"
)

// File 是目录种子文件的结构：
//
//	songs:
//	  - id: 1
//	    title: Blue Train
//	    genres: [jazz]
//	    speed: fast
//	    mood_tags: "bright, restless"
//	    instrument_tags: "sax, trumpet"
//	    like_count: 12
//	    released_at: 1958-01-01T00:00:00Z
type File struct {
	Songs []*core.SongFeatures `yaml:"songs"`
}

// LoadYAML 从文件加载目录
func LoadYAML(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML 从 YAML 内容构建目录，ID 必须为正且不重复
func ParseYAML(data []byte) (*MemoryCatalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	seen := make(map[int64]struct{}, len(f.Songs))
	for i, s := range f.Songs {
		if s == nil || s.ID <= 0 {
			return nil, core.InvalidInput(core.ModuleRecommend, fmt.Sprintf("catalog song #%d has no valid id", i))
		}
		if _, dup := seen[s.ID]; dup {
			return nil, core.InvalidInput(core.ModuleRecommend, fmt.Sprintf("catalog song id %d is duplicated", s.ID))
		}
		seen[s.ID] = struct{}{}
	}
	return NewMemoryCatalog(f.Songs...), nil
}
