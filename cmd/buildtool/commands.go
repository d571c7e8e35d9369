package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/buildgeo/internal/assets"
	"github.com/Faultbox/buildgeo/internal/engine/level"
	"github.com/Faultbox/buildgeo/internal/engine/sector"
	"github.com/Faultbox/buildgeo/pkg/grp"
)

func cmdInfo(e *env, args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	archive, err := grp.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	type extStat struct {
		ext   string
		count int
		size  int64
	}
	byExt := make(map[string]*extStat)
	var total int64
	for _, l := range archive.Lumps() {
		ext := strings.ToLower(filepath.Ext(l.Name))
		if ext == "" {
			ext = "(no ext)"
		}
		s, ok := byExt[ext]
		if !ok {
			s = &extStat{ext: ext}
			byExt[ext] = s
		}
		s.count++
		s.size += int64(l.Size)
		total += int64(l.Size)
	}

	hdr := archive.Header()
	fmt.Fprintf(e.out, "Archive:   %s\n", args[0])
	fmt.Fprintf(e.out, "Signature: %s\n", hdr.Signature)
	fmt.Fprintf(e.out, "Lumps:     %d\n", hdr.LumpCount)
	fmt.Fprintf(e.out, "Size:      %.2f MB\n", float64(total)/(1024*1024))
	fmt.Fprintln(e.out)
	fmt.Fprintln(e.out, "Lumps by type:")

	stats := make([]*extStat, 0, len(byExt))
	for _, s := range byExt {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].ext < stats[j].ext
	})
	for _, s := range stats {
		fmt.Fprintf(e.out, "  %-10s %5d  %10d bytes\n", s.ext, s.count, s.size)
	}
	return nil
}

func cmdList(e *env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("n", 0, "Limit output to N lumps (0 = all)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		return errUsage
	}

	archive, err := grp.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	names := archive.List()
	sort.Strings(names)

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, n := range names {
		if pattern != "" && !matchLump(pattern, n) {
			continue
		}
		fmt.Fprintln(e.out, n)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d lumps matched)\n", count)
	}
	return nil
}

// matchLump matches a lowercase glob or substring against a lump name.
func matchLump(pattern, name string) bool {
	lower := strings.ToLower(name)
	matched, _ := filepath.Match(pattern, lower)
	return matched || strings.Contains(lower, pattern)
}

func cmdExtract(e *env, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	lump := args[1]
	outputDir := "."
	if len(args) > 2 {
		outputDir = args[2]
	}

	archive, err := grp.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	var names []string
	if strings.ContainsAny(lump, "*?[") {
		pattern := strings.ToLower(lump)
		for _, n := range archive.List() {
			if ok, _ := filepath.Match(pattern, strings.ToLower(n)); ok {
				names = append(names, n)
			}
		}
	} else {
		names = []string{lump}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	extracted := 0
	for _, n := range names {
		data, err := archive.Read(n)
		if err != nil {
			if len(names) == 1 {
				return err
			}
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", n, err)
			continue
		}
		outputPath := filepath.Join(outputDir, strings.ToUpper(n))
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		fmt.Fprintf(e.out, "Extracted: %s (%d bytes)\n", outputPath, len(data))
		extracted++
	}

	if len(names) > 1 || extracted == 0 {
		fmt.Fprintf(os.Stderr, "\nExtracted %d lumps\n", extracted)
	}
	return nil
}

func cmdTiles(e *env, args []string) error {
	m, _, err := openArchives(e, args, false)
	if err != nil {
		return err
	}
	defer m.Close()

	atlas, err := m.Atlas()
	if err != nil {
		return err
	}

	for _, id := range atlas.IDs() {
		t, _ := atlas.Lookup(id)
		if t.IsEmpty() {
			continue
		}
		fmt.Fprintf(e.out, "%5d  %4dx%-4d", id, t.Width, t.Height)
		if frames := t.Picanm.FrameCount(); frames > 0 {
			fmt.Fprintf(e.out, "  anim %d frames", frames)
		}
		fmt.Fprintln(e.out)
	}
	fmt.Fprintf(os.Stderr, "\n(%d tiles)\n", atlas.Len())
	return nil
}

func cmdTile(e *env, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	grpArgs, idArg, outPath := args[:len(args)-2], args[len(args)-2], args[len(args)-1]

	id, err := strconv.Atoi(idArg)
	if err != nil {
		return errUsage
	}

	m, _, err := openArchives(e, grpArgs, false)
	if err != nil {
		return err
	}
	defer m.Close()

	atlas, err := m.Atlas()
	if err != nil {
		return err
	}
	tex, ok := atlas.Texture(id)
	if !ok {
		return fmt.Errorf("tile %d not found", id)
	}
	if err := tex.Save(outPath); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Saved tile %d (%dx%d) to %s\n", id, tex.Width, tex.Height, outPath)
	return nil
}

func cmdMap(e *env, args []string) error {
	m, mapName, err := openArchives(e, args, true)
	if err != nil {
		return err
	}
	defer m.Close()

	mp, err := m.Map(mapName)
	if err != nil {
		return err
	}

	portals := 0
	for i := range mp.Walls {
		if mp.Walls[i].IsPortal() {
			portals++
		}
	}
	sloped := 0
	for i := range mp.Sectors {
		if mp.Sectors[i].Floor.Flags.Sloped || mp.Sectors[i].Ceiling.Flags.Sloped {
			sloped++
		}
	}

	start := sector.WorldXZ(mp.Start.X, mp.Start.Y)
	fmt.Fprintf(e.out, "Map:     %s (version %d)\n", strings.ToUpper(mapName), mp.Version)
	fmt.Fprintf(e.out, "Sectors: %d (%d sloped)\n", len(mp.Sectors), sloped)
	fmt.Fprintf(e.out, "Walls:   %d (%d portals)\n", len(mp.Walls), portals)
	fmt.Fprintf(e.out, "Sprites: %d\n", len(mp.Sprites))
	fmt.Fprintf(e.out, "Start:   (%.2f, %.2f, %.2f) angle %d sector %d\n",
		start.X, sector.WorldY(mp.Start.Z), start.Y, mp.Start.Angle, mp.Start.Sector)
	return nil
}

func cmdMeshes(e *env, args []string) error {
	fs := flag.NewFlagSet("meshes", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "List every warning")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, mapName, err := openArchives(e, fs.Args(), true)
	if err != nil {
		return err
	}
	defer m.Close()

	lvl, err := m.LoadLevel(mapName, level.Options{
		Logger:        e.log,
		Workers:       e.cfg.Geometry.Workers,
		SlopeDivisor:  e.cfg.Geometry.SlopeDivisor,
		CeilingSlopes: e.cfg.Geometry.CeilingSlopes,
	})
	if err != nil {
		return err
	}

	printLevel(e.out, lvl, *verbose)
	return nil
}

func printLevel(w io.Writer, lvl *level.Level, verbose bool) {
	fmt.Fprintf(w, "Level:    %s\n", lvl.Name)
	fmt.Fprintf(w, "Load ID:  %s\n", lvl.LoadID)
	fmt.Fprintf(w, "Sectors:  %d\n", lvl.SectorCount)
	fmt.Fprintf(w, "Meshes:   %d\n", lvl.Counts.Total())

	triangles := 0
	for _, mesh := range lvl.Meshes {
		triangles += mesh.TriangleCount()
	}
	fmt.Fprintf(w, "Triangles: %d\n", triangles)
	fmt.Fprintln(w)

	for _, t := range []level.MeshType{level.Floor, level.Ceiling, level.UpperWall, level.LowerWall, level.SolidWall} {
		fmt.Fprintf(w, "  %-10s %d\n", t, lvl.Counts.Of(t))
	}

	if lvl.Counts.Total() > 0 {
		b := lvl.Bounds
		fmt.Fprintf(w, "\nBounds: (%.1f, %.1f, %.1f) - (%.1f, %.1f, %.1f)\n",
			b.Min.X(), b.Min.Y(), b.Min.Z(), b.Max.X(), b.Max.Y(), b.Max.Z())
	}

	fmt.Fprintf(w, "\nWarnings: %d\n", len(lvl.Warnings))
	if verbose {
		for _, warn := range lvl.Warnings {
			fmt.Fprintf(w, "  %v\n", warn)
		}
	}
}

// openArchives opens the archive named by the leading argument, or the
// configured archives when none is given. With wantMap it also resolves the
// map lump, falling back to the configured one.
func openArchives(e *env, args []string, wantMap bool) (*assets.Manager, string, error) {
	var paths []string
	mapName := e.cfg.Data.Map

	switch {
	case len(args) == 0:
		paths = e.cfg.Data.GRPPaths
	case wantMap && len(args) == 1 && strings.EqualFold(filepath.Ext(args[0]), ".map"):
		paths = e.cfg.Data.GRPPaths
		mapName = args[0]
	case wantMap && len(args) >= 2:
		paths = args[:1]
		mapName = args[1]
	default:
		paths = args[:1]
	}
	if len(paths) == 0 {
		return nil, "", fmt.Errorf("%w: no archive given and none configured", errUsage)
	}

	m := assets.NewManager(e.log)
	for _, p := range paths {
		if err := m.AddArchive(p); err != nil {
			m.Close()
			return nil, "", err
		}
	}
	e.log.Debug("archives opened", zap.Strings("paths", paths), zap.String("map", mapName))
	return m, mapName, nil
}
