// Package orchestrator drives the reconciliation engine end to end
// (C8): it sequences the channel map, the base-EPG listings parse, the
// sports-feed parse, the relax and force merge passes, XMLTV emission,
// and match-store retention, wiring the ambient logging/telemetry/
// metrics stack in at the seams.
package orchestrator

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourflock/epgreconciler/internal/channelmap"
	"github.com/yourflock/epgreconciler/internal/config"
	"github.com/yourflock/epgreconciler/internal/logging"
	"github.com/yourflock/epgreconciler/internal/matchstore"
	"github.com/yourflock/epgreconciler/internal/merge"
	"github.com/yourflock/epgreconciler/internal/metrics"
	"github.com/yourflock/epgreconciler/internal/notify"
	"github.com/yourflock/epgreconciler/internal/progindex"
	"github.com/yourflock/epgreconciler/internal/resolver"
	"github.com/yourflock/epgreconciler/internal/xmltv"
)

// httpTimeout bounds the sports-feed download, per spec.md §5.
const httpTimeout = 60 * time.Second

// Orchestrator owns the process-global Match Store connection and
// drives one reconciliation run.
type Orchestrator struct {
	cfg   *config.Config
	log   *logrus.Entry
	runID string

	store      *matchstore.Store
	channelMap *channelmap.Map
	errs       *notify.Accumulator

	httpClient *http.Client
}

// New opens the Match Store and loads the static channel map. Both
// failures are fatal configuration/I-O errors per spec.md §7.
func New(cfg *config.Config, log *logrus.Entry, runID string) (*Orchestrator, error) {
	store, err := matchstore.Open(cfg.DatabaseFilePath, cfg.SchemaFilePath)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: opening match store: %w", err)
	}

	mapFile, err := os.Open(cfg.ChannelMapFilePath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("orchestrator: opening channel map: %w", err)
	}
	defer mapFile.Close()

	cm, err := channelmap.Load(mapFile)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("orchestrator: loading channel map: %w", err)
	}

	return &Orchestrator{
		cfg:        cfg,
		log:        log,
		runID:      runID,
		store:      store,
		channelMap: cm,
		errs:       notify.NewAccumulator(),
		httpClient: &http.Client{Timeout: httpTimeout},
	}, nil
}

// Close releases the Match Store connection.
func (o *Orchestrator) Close() error {
	return o.store.Close()
}

// Errors returns the accumulator of non-fatal errors recorded this run.
func (o *Orchestrator) Errors() *notify.Accumulator {
	return o.errs
}

// Run executes one full reconciliation pass: parse, merge (relax then
// force), emit, purge. It returns a non-nil error only for conditions
// the spec treats as fatal; everything else is recorded in o.Errors()
// and the run continues to produce the best EPG achievable.
func (o *Orchestrator) Run() error {
	runStart := time.Now().UTC()
	defer func() {
		metrics.RunDuration.Observe(time.Since(runStart).Seconds())
	}()

	base, latestBaseStop, err := o.parseBaseListings()
	if err != nil {
		return err
	}
	o.checkSourceCoverage(base)

	sportsByChannel := o.parseSportsFeed(runStart)

	if o.cfg.Backup {
		if err := o.backupOutputs(runStart); err != nil {
			o.errs.Add("backup", "", err)
		}
	}

	index := progindex.New()
	for _, ch := range base {
		index.AddChannel(ch)
	}

	res, err := resolver.New(o.store, index, runStart, latestBaseStop, o.cfg.OutputXMLTVNumberOfDays)
	if err != nil {
		return fmt.Errorf("orchestrator: building resolver: %w", err)
	}
	resolve := func(sports *xmltv.Program) (bool, bool, *xmltv.Program, error) {
		resolution, err := res.Resolve(sports)
		if err != nil {
			return false, false, nil, err
		}
		return resolution.Found, resolution.Substituted, resolution.Program, nil
	}

	relaxResult := o.mergeChannels(base, sportsByChannel, func(baseProgs, sportsProgs []*xmltv.Program) ([]*xmltv.Program, error) {
		return merge.Relax(baseProgs, sportsProgs, resolve)
	}, xmltv.ModeRelax)
	o.emit(relaxResult, xmltv.ModeRelax, runStart)

	forceResult := o.mergeChannels(base, sportsByChannel, func(baseProgs, sportsProgs []*xmltv.Program) ([]*xmltv.Program, error) {
		return merge.Force(baseProgs, sportsProgs), nil
	}, xmltv.ModeForce)
	o.emit(forceResult, xmltv.ModeForce, runStart)

	// category_map hypotheses are upserted incrementally by the resolver
	// as (sports-category, epg-category) pairs cross the witness
	// threshold during the merge passes above; nothing further to do here.

	if err := o.store.PurgeExpired(runStart); err != nil {
		o.errs.Add("retention", "", err)
	}

	if o.cfg.GmailEnabled && !o.errs.Empty() {
		sender := notify.GmailSender{Username: o.cfg.GmailUsername, Password: o.cfg.GmailPassword}
		o.log.WithField("gmail_user", logging.RedactEmail(o.cfg.GmailUsername)).Info("sending run failure summary email")
		if err := sender.Send(o.runID, o.errs); err != nil {
			o.log.WithError(err).Error("failed to send failure notification email")
		}
	}

	if o.cfg.MetricsTextfilePath != "" {
		if err := metrics.WriteTextfile(o.cfg.MetricsTextfilePath); err != nil {
			o.log.WithError(err).Error("failed to write metrics textfile")
		}
	}

	return nil
}

// parseBaseListings reads every file in the input XMLTV directory,
// resolving upstream channel ids through the channel map, and combines
// them into one set of channels keyed by service channel number.
func (o *Orchestrator) parseBaseListings() (map[string]*xmltv.Channel, time.Time, error) {
	entries, err := os.ReadDir(o.cfg.InputXMLTVDirectoryPath)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("orchestrator: reading input listings directory: %w", err)
	}

	base := make(map[string]*xmltv.Channel)
	var latestStop time.Time

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(o.cfg.InputXMLTVDirectoryPath, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			o.errs.Add("parse_base", entry.Name(), err)
			continue
		}

		result, err := xmltv.ParseReader(f, xmltv.ParseOptions{ResolveChannelID: o.channelMap.Resolve})
		f.Close()
		if err != nil {
			o.errs.Add("parse_base", entry.Name(), err)
			continue
		}

		metrics.ProgramsParsed.WithLabelValues("base").Add(float64(countPrograms(result.Channels)))
		mergeParsedChannels(base, result.Channels)
		if result.LatestProgramStop.After(latestStop) {
			latestStop = result.LatestProgramStop
		}
	}

	return base, latestStop, nil
}

// checkSourceCoverage records an error for every service channel the
// channel map declares that never received a single program, per
// spec.md §7's "source coverage failure".
func (o *Orchestrator) checkSourceCoverage(base map[string]*xmltv.Channel) {
	for _, id := range o.channelMap.ServiceChannelIDs() {
		ch, ok := base[id]
		if !ok || len(ch.Programs) == 0 {
			o.errs.Add("source_coverage", id, fmt.Errorf("declared channel %s is absent from the produced XMLTV", id))
		}
	}
}

// parseSportsFeed downloads and parses the live sports feed, applying
// the DST fix-up and cleaning up intra-feed overlaps per channel. A
// download or parse failure is recorded as a non-fatal upstream-fetch
// error; the run continues with no sports overlay.
func (o *Orchestrator) parseSportsFeed(runStart time.Time) map[string][]*xmltv.Program {
	resp, err := o.httpClient.Get(o.cfg.SportsFeedURL)
	if err != nil {
		o.errs.Add("fetch_sports", "", fmt.Errorf("fetching sports feed: %w", err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		o.errs.Add("fetch_sports", "", fmt.Errorf("sports feed returned status %d", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		o.errs.Add("fetch_sports", "", fmt.Errorf("reading sports feed body: %w", err))
		return nil
	}

	loc, err := resolveDSTZone(o.cfg.DSTZoneName)
	if err != nil {
		o.errs.Add("fetch_sports", "", fmt.Errorf("resolving DST zone: %w", err))
		loc = time.Local
	}

	result, err := xmltv.ParseReader(bytes.NewReader(body), xmltv.ParseOptions{
		DSTActive: sportsFeedDSTActive(loc, runStart),
	})
	if err != nil {
		o.errs.Add("parse_sports", "", err)
		return nil
	}
	metrics.ProgramsParsed.WithLabelValues("sports").Add(float64(countPrograms(result.Channels)))

	sportsByChannel := make(map[string][]*xmltv.Program, len(result.Channels))
	for id, ch := range result.Channels {
		sportsByChannel[id] = merge.CleanupSportsOverlaps(ch.Programs)
	}
	return sportsByChannel
}

// mergeChannels applies fn to a fresh clone (clonePrograms) of every base
// channel's program list against its sports overlay, recovering any
// panic into the error accumulator (spec.md §7) rather than letting it
// escape the engine.
func (o *Orchestrator) mergeChannels(base map[string]*xmltv.Channel, sportsByChannel map[string][]*xmltv.Program, fn func(baseProgs, sportsProgs []*xmltv.Program) ([]*xmltv.Program, error), mode xmltv.Mode) map[string]*xmltv.Channel {
	out := make(map[string]*xmltv.Channel, len(base))

	for id, ch := range base {
		merged, mergeErr := o.mergeOneChannel(ch, sportsByChannel[id], fn)
		if mergeErr != nil {
			o.errs.Add(fmt.Sprintf("merge_%s", mode), id, mergeErr)
			merged = clonePrograms(ch.Programs)
		}
		out[id] = &xmltv.Channel{
			ID:           ch.ID,
			DisplayNames: ch.DisplayNames,
			Icons:        ch.Icons,
			URLs:         ch.URLs,
			Programs:     merged,
		}
	}
	return out
}

func (o *Orchestrator) mergeOneChannel(ch *xmltv.Channel, sportsProgs []*xmltv.Program, fn func([]*xmltv.Program, []*xmltv.Program) ([]*xmltv.Program, error)) (merged []*xmltv.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic merging channel %s: %v", ch.ID, r)
		}
	}()
	return fn(clonePrograms(ch.Programs), sportsProgs)
}

// emit writes the output files for one merge pass: a full and a short
// file for every configured horizon.
func (o *Orchestrator) emit(channels map[string]*xmltv.Channel, mode xmltv.Mode, runStart time.Time) {
	order := make([]string, 0, len(channels))
	for id := range channels {
		order = append(order, id)
	}
	sort.Strings(order)

	for _, days := range o.cfg.OutputXMLTVNumberOfDays {
		cutoff := xmltv.Cutoff(runStart, days)
		for _, variant := range []xmltv.Variant{xmltv.VariantFull, xmltv.VariantShort} {
			name := xmltv.FileName(mode, variant, days)
			path := filepath.Join(o.cfg.OutputDirectoryPath, name)

			f, err := os.Create(path)
			if err != nil {
				o.errs.Add("emit", "", fmt.Errorf("creating %s: %w", path, err))
				continue
			}
			err = xmltv.Write(f, channels, order, runStart, cutoff, variant)
			f.Close()
			if err != nil {
				o.errs.Add("emit", "", fmt.Errorf("writing %s: %w", path, err))
				continue
			}
			metrics.FilesEmitted.WithLabelValues(string(variant)).Inc()
		}
	}
}

// backupOutputs copies any existing output files into a timestamped
// subdirectory before they are overwritten, gated by the -b flag.
func (o *Orchestrator) backupOutputs(runStart time.Time) error {
	entries, err := os.ReadDir(o.cfg.OutputDirectoryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading output directory: %w", err)
	}

	backupDir := filepath.Join(o.cfg.OutputDirectoryPath, "backup_"+runStart.Format("20060102T150405Z"))
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(o.cfg.OutputDirectoryPath, entry.Name())
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("reading %s for backup: %w", src, err)
		}
		if err := os.WriteFile(filepath.Join(backupDir, entry.Name()), data, 0o644); err != nil {
			return fmt.Errorf("writing backup of %s: %w", src, err)
		}
	}
	return nil
}

func countPrograms(channels map[string]*xmltv.Channel) int {
	n := 0
	for _, ch := range channels {
		n += len(ch.Programs)
	}
	return n
}

// clonePrograms copies each Program of a channel's list with WithTimes
// (a shallow struct copy: Start/Stop belong to the copy, slice and
// pointer fields are shared) so a merge pass's trims and splits never
// mutate the shared base timeline out from under a later pass (see
// SPEC_FULL.md §9's pristine-base-snapshot resolution).
func clonePrograms(programs []*xmltv.Program) []*xmltv.Program {
	out := make([]*xmltv.Program, len(programs))
	for i, p := range programs {
		out[i] = p.WithTimes(p.Start, p.Stop)
	}
	return out
}

// mergeParsedChannels folds src into dst, combining metadata and
// program lists for channels that appear in more than one listings
// source and re-establishing start order.
func mergeParsedChannels(dst map[string]*xmltv.Channel, src map[string]*xmltv.Channel) {
	for id, ch := range src {
		existing, ok := dst[id]
		if !ok {
			dst[id] = ch
			continue
		}
		existing.DisplayNames = append(existing.DisplayNames, ch.DisplayNames...)
		existing.Icons = append(existing.Icons, ch.Icons...)
		existing.URLs = append(existing.URLs, ch.URLs...)
		existing.Programs = append(existing.Programs, ch.Programs...)
		sort.Slice(existing.Programs, func(i, j int) bool {
			return existing.Programs[i].Start.Before(existing.Programs[j].Start)
		})
	}
}
