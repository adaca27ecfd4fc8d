// Binary coupon-ingest bulk-loads partner coupon-code exports into the
// coupon store. Partners ship large gzipped files of candidate codes; a code
// is accepted only when it appears in at least two of the files. The
// cross-file check uses one bloom filter per file so the full code sets
// never have to fit in memory at once.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/storecore/storecore/internal/domain/coupon"
	storageredis "github.com/storecore/storecore/internal/storage/redis"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// discountRule is the rule attached to an accepted code.
type discountRule struct {
	discountType coupon.DiscountType
	value        string
}

// A few well-known campaign codes carry their own rule; everything else
// gets the default.
var namedRules = map[string]discountRule{
	"FIFTYOFF": {discountType: coupon.DiscountPercentage, value: "50"},
	"SIXTYOFF": {discountType: coupon.DiscountPercentage, value: "60"},
	"HAPPYHRS": {discountType: coupon.DiscountPercentage, value: "18"},
	"OVER9000": {discountType: coupon.DiscountFixed, value: "9"},
}

var defaultRule = discountRule{
	discountType: coupon.DiscountPercentage,
	value:        "10",
}

// fileResult holds candidate codes found in a single file during pass 2,
// as a bitmask of the files each code was seen in.
type fileResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir   string
		redisAddr string
		validFor  time.Duration
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing couponbaseN.gz files")
	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address (or REDIS_URL env)")
	flag.DurationVar(&validFor, "valid-for", 30*24*time.Hour, "validity window for ingested coupons")
	flag.Parse()

	if v := os.Getenv("REDIS_URL"); v != "" {
		redisAddr = v
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, redisAddr, validFor); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, dataDir, redisAddr string, validFor time.Duration) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("couponbase%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: one bloom filter per file, built concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: codes appearing in 2+ files.
	slog.Info("pass 2: finding accepted codes")

	accepted, err := findAcceptedCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find accepted codes")
	}

	slog.Info("accepted codes found", slog.Int("count", len(accepted)))

	if len(accepted) == 0 {
		slog.Info("no codes to write")
		return nil
	}

	slog.Info("connecting to coupon store", slog.String("addr", redisAddr))

	rdb, err := storageredis.NewClient(ctx, storageredis.Config{Addr: redisAddr})
	if err != nil {
		return errors.Wrap(err, "connect redis")
	}
	defer func() { _ = rdb.Close() }()

	store := storageredis.NewCouponStore(rdb)
	return writeCoupons(ctx, store, accepted, time.Now().Add(validFor))
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) >= minCodeLen && len(code) <= maxCodeLen {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("file", idx+1),
						slog.Uint64("codes", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findAcceptedCodes re-streams each file and checks codes against the OTHER
// files' bloom filters. A code is accepted when it appears in 2 or more
// files.
func findAcceptedCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	var accepted []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			accepted = append(accepted, code)
		}
	}
	return accepted, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}

			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= fileBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// writeCoupons stores every accepted code with its discount rule. Codes that
// fail aggregate validation are skipped, not fatal.
func writeCoupons(ctx context.Context, store coupon.Store, codes []string, expiresAt time.Time) error {
	slog.Info("writing coupons", slog.Int("count", len(codes)))

	written := 0
	for i, code := range codes {
		rule, ok := namedRules[code]
		if !ok {
			rule = defaultRule
		}

		value, err := decimal.NewFromString(rule.value)
		if err != nil {
			return errors.Wrapf(err, "parse value for code %s", code)
		}

		c, err := coupon.New(code, rule.discountType, value, expiresAt)
		if err != nil {
			slog.Warn("skipping invalid code", slog.String("code", code), slog.String("error", err.Error()))
			continue
		}

		if err := store.Put(ctx, c); err != nil {
			return errors.Wrapf(err, "store coupon %s", code)
		}
		written++

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(codes)))
		}
	}

	return nil
}
