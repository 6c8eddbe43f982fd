package pipeline

import (
	"fmt"
	"hash/fnv"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/logger"
	"github.com/ironsheep/omr-grader/internal/overlay"
)

// Diagnostics receives intermediate images as a sheet is processed. name
// identifies the sheet, see SheetName.
type Diagnostics interface {
	Binary(name string, binary *image.Gray)
	Fiducials(name string, gray *image.Gray, centers []geom.Point)
	Rectified(name string, sheet *image.Gray)
}

// DirDiagnostics writes each intermediate image as a PNG into Dir:
// <name>_binary.png, <name>_fiducials.png and <name>_rectified.png.
// Write failures are logged and otherwise ignored.
type DirDiagnostics struct {
	Dir string
	Log *logger.Logger
}

// NewDirDiagnostics creates dir if needed.
func NewDirDiagnostics(dir string, log *logger.Logger) (*DirDiagnostics, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &DirDiagnostics{Dir: dir, Log: log}, nil
}

func (d *DirDiagnostics) Binary(name string, binary *image.Gray) {
	d.write(name, "binary", binary)
}

func (d *DirDiagnostics) Fiducials(name string, gray *image.Gray, centers []geom.Point) {
	d.write(name, "fiducials", overlay.MarkPoints(gray, centers, 25))
}

func (d *DirDiagnostics) Rectified(name string, sheet *image.Gray) {
	d.write(name, "rectified", sheet)
}

func (d *DirDiagnostics) write(name, kind string, img image.Image) {
	path := filepath.Join(d.Dir, name+"_"+kind+".png")
	if err := overlay.Write(path, img); err != nil {
		d.Log.Warning("diagnostics: %v", err)
		return
	}
	d.Log.Debug("diagnostics: wrote %s", path)
}

// SheetName names the files written for the sheet at path: the file name
// without its extension, then a hash of the absolute path. Photos that share
// a file name in different directories get different names.
func SheetName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	h := fnv.New32a()
	h.Write([]byte(abs))
	return fmt.Sprintf("%s-%08x", name, h.Sum32())
}
