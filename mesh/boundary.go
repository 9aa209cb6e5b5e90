package mesh

import (
	"bytes"
	"strconv"

	"github.com/notargets/foamcase/foamfile"
	"github.com/notargets/foamcase/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// UnpatchedFace marks a boundary face no patch claims. Real patch ids
	// are all below it.
	UnpatchedFace = -1
	// FirstPatchID is the id of the first declared patch, later patches
	// count down from it
	FirstPatchID = -10
)

// PatchID returns the id of the i-th declared patch
func PatchID(i int) int { return FirstPatchID - i }

// PatchIndex inverts PatchID. ok is false for ids that are not patch ids.
func PatchIndex(id int) (i int, ok bool) {
	if id > FirstPatchID {
		return 0, false
	}
	return FirstPatchID - id, true
}

// Patch is one boundary region: a contiguous range of boundary faces
type Patch struct {
	Name      string
	Type      string
	NFaces    int
	StartFace int
	ID        int
}

// EndFace is one past the last face of the patch
func (p Patch) EndFace() int { return p.StartFace + p.NFaces }

// Contains reports whether face f belongs to the patch
func (p Patch) Contains(f int) bool { return f >= p.StartFace && f < p.EndFace() }

// ReadBoundary loads a polyMesh boundary file
func ReadBoundary(path string, opts ...foamfile.Option) ([]Patch, error) {
	c, err := foamfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBoundary(c, opts...)
}

// ParseBoundary decodes the patch list of a boundary file. The file is
// always text. A malformed list is logged and the patches before the fault
// are returned. Every patch needs nFaces and startFace.
func ParseBoundary(c *foamfile.Content, opts ...foamfile.Option) ([]Patch, error) {
	o := foamfile.NewOptions(opts...)
	hd := foamfile.ParseHeader(c)
	blocks, diag := foamfile.ScanBlocks(c, foamfile.PatchListScope, hd.DataStart(o.SkipLines))
	if diag != nil {
		log.Warn().Str(logging.File, c.Name).Str(logging.Section, "patches").
			Int(logging.Count, len(blocks)).Msg(diag.Error())
	}

	patches := make([]Patch, 0, len(blocks))
	for i, b := range blocks {
		p := Patch{Name: b.Name, ID: PatchID(i), NFaces: -1, StartFace: -1}
		for n := b.First; n <= b.Last; n++ {
			key, val := patchEntry(c.Text(n))
			var err error
			switch key {
			case "type":
				p.Type = val
			case "nFaces":
				p.NFaces, err = strconv.Atoi(val)
			case "startFace":
				p.StartFace, err = strconv.Atoi(val)
			}
			if err != nil {
				return patches, errors.Wrapf(&foamfile.SyntaxError{Line: n, Msg: err.Error()},
					"patch %s in %s", p.Name, c.Name)
			}
		}
		if p.NFaces < 0 || p.StartFace < 0 {
			return patches, errors.Wrapf(&foamfile.SyntaxError{Line: b.First, Msg: "needs nFaces and startFace"},
				"patch %s in %s", p.Name, c.Name)
		}
		patches = append(patches, p)
	}
	log.Debug().Str(logging.File, c.Name).Int(logging.Count, len(patches)).Msg("boundary patches")
	return patches, nil
}

// patchEntry splits "key value;" into its parts
func patchEntry(line []byte) (key, val string) {
	fields := bytes.Fields(bytes.TrimSuffix(line, []byte(";")))
	if len(fields) < 2 {
		return "", ""
	}
	return string(fields[0]), string(fields[1])
}
