package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cinema/internal/logging"
)

// cdnMarker marks a cover URL as an already-hosted asset that later sources
// must not replace.
const cdnMarker = "cdn"

// Reconcile merges one candidate into the canonical table.
//
// An unseen natural key inserts a new row whose download_link holds only the
// candidate's source. A known key keeps every descriptive field from the
// first insert and merges only score, cover, local_cover and download_link.
// The lookup and the write share one immediate transaction, so concurrent
// reconciliations of the same title are serialized by the store's write
// lock. The store never retries; busy and timeout failures surface to the
// caller.
func (s *Store) Reconcile(ctx context.Context, cand Candidate) (ReconcileResult, error) {
	ctx = ensureContext(ctx)
	if err := cand.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	var result ReconcileResult
	err := s.withTx(ctx, "reconcile", func(tx *sql.Tx) error {
		existing, err := lookupByKey(ctx, tx, cand.Key())
		if err != nil {
			return err
		}
		if existing == nil {
			result, err = insertCandidate(ctx, tx, cand)
			return err
		}
		result, err = mergeCandidate(ctx, tx, existing, cand)
		return err
	})
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			logging.ErrorWithContext(s.logger, "stored download links are malformed", "reconcile_parse_error",
				logging.Int64("id", parseErr.ID),
				logging.String("name", cand.Name),
				logging.String("source", cand.Source),
				logging.String(logging.FieldErrorHint, "repair or delete the row before re-ingesting"),
				logging.Error(parseErr.Err),
			)
		}
		return ReconcileResult{}, err
	}

	s.logger.Debug("candidate reconciled",
		logging.Int64("id", result.ID),
		logging.Bool("created", result.Created),
		logging.String("name", cand.Name),
		logging.String("source", cand.Source),
	)
	return result, nil
}

type mergeTarget struct {
	id         int64
	score      float64
	cover      string
	localCover string
	links      string
}

// lookupByKey returns the oldest row for key. Legacy databases may still
// hold several rows per key until the dedup job runs.
func lookupByKey(ctx context.Context, tx *sql.Tx, key NaturalKey) (*mergeTarget, error) {
	var (
		target     mergeTarget
		score      sql.NullFloat64
		cover      sql.NullString
		localCover sql.NullString
		links      sql.NullString
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, score, cover, local_cover, download_link
		 FROM media WHERE name = ? AND director = ? ORDER BY id LIMIT 1`,
		key.Name, key.Director,
	).Scan(&target.id, &score, &cover, &localCover, &links)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("reconcile: lookup", err, key.Name, key.Director)
	}
	target.score = score.Float64
	target.cover = cover.String
	target.localCover = localCover.String
	target.links = links.String
	return &target, nil
}

func insertCandidate(ctx context.Context, tx *sql.Tx, cand Candidate) (ReconcileResult, error) {
	links := DownloadLinks{cand.Source: cand.Link}
	payload, err := links.Marshal()
	if err != nil {
		return ReconcileResult{}, storeErr("reconcile: insert", err, cand.Name, cand.Director)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO media (
			cover, local_cover, name, score, area, language, category,
			release_date, duration, director, actors, summary, download_link, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cand.Cover,
		cand.LocalCover,
		cand.Name,
		cand.Score,
		cand.Area,
		cand.Language,
		cand.Category,
		cand.ReleaseDate,
		cand.Duration,
		cand.Director,
		cand.Actors,
		cand.Summary,
		payload,
		cand.Source,
	)
	if err != nil {
		return ReconcileResult{}, storeErr("reconcile: insert", err, cand.Name, cand.Director)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ReconcileResult{}, storeErr("reconcile: insert id", err, cand.Name, cand.Director)
	}
	return ReconcileResult{ID: id, Created: true, Sources: links.Sources()}, nil
}

func mergeCandidate(ctx context.Context, tx *sql.Tx, existing *mergeTarget, cand Candidate) (ReconcileResult, error) {
	links, err := ParseDownloadLinks(existing.links)
	if err != nil {
		return ReconcileResult{}, &ParseError{ID: existing.id, Payload: existing.links, Err: err}
	}
	links[cand.Source] = cand.Link
	payload, err := links.Marshal()
	if err != nil {
		return ReconcileResult{}, storeErr("reconcile: update", err, existing.id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE media SET score = ?, cover = ?, local_cover = ?, download_link = ? WHERE id = ?`,
		MergeScore(existing.score, cand.Score),
		MergeCover(existing.cover, cand.Cover),
		MergeLocalCover(existing.localCover, cand.LocalCover),
		payload,
		existing.id,
	)
	if err != nil {
		return ReconcileResult{}, storeErr("reconcile: update", err, existing.id, cand.Source)
	}
	return ReconcileResult{ID: existing.id, Sources: links.Sources()}, nil
}

// MergeScore keeps a positive existing score; otherwise it adopts incoming.
func MergeScore(existing, incoming float64) float64 {
	if existing > 0 {
		return existing
	}
	return incoming
}

// MergeCover keeps an existing cover hosted on a CDN, and never lets an empty
// incoming cover erase a known one.
func MergeCover(existing, incoming string) string {
	if strings.Contains(existing, cdnMarker) {
		return existing
	}
	if strings.TrimSpace(incoming) == "" {
		return existing
	}
	return incoming
}

// MergeLocalCover keeps the first non-empty local cover.
func MergeLocalCover(existing, incoming string) string {
	if existing != "" {
		return existing
	}
	return incoming
}
