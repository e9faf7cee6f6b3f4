package file

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jsphweid/boomparts/model"
)

// PartPaths is where one part is written and where the renderer should put
// the document made from it.
type PartPaths struct {
	Source string
	Output string
}

// CreatePartPathMap plans a source and output path for every part, keyed by
// performer id.
func CreatePartPathMap(dir string, parts []model.Part, sourceExt, outputExt string) map[int]PartPaths {
	res := make(map[int]PartPaths, len(parts))
	for _, p := range parts {
		base := PartBaseName(p.Performer)
		res[p.Performer] = PartPaths{
			Source: filepath.Join(dir, base+"."+strings.TrimPrefix(sourceExt, ".")),
			Output: filepath.Join(dir, base+"."+strings.TrimPrefix(outputExt, ".")),
		}
	}
	return res
}

func PartBaseName(performer int) string {
	return fmt.Sprintf("performer-%02d", performer)
}

// TitleFromPath turns "ode_to-joy.mxl" into "Ode To Joy".
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	return cases.Title(language.English).String(base)
}
