package catalog

import (
	"database/sql"
	"strings"
)

const recordColumns = `id, cover, local_cover, name, score, area, language, category,
	release_date, duration, director, actors, summary, download_link, source`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec        Record
		cover      sql.NullString
		localCover sql.NullString
		score      sql.NullFloat64
		area       sql.NullString
		language   sql.NullString
		category   sql.NullString
		release    sql.NullString
		duration   sql.NullString
		director   sql.NullString
		actors     sql.NullString
		summary    sql.NullString
		links      sql.NullString
		source     sql.NullString
	)
	if err := s.Scan(
		&rec.ID,
		&cover,
		&localCover,
		&rec.Name,
		&score,
		&area,
		&language,
		&category,
		&release,
		&duration,
		&director,
		&actors,
		&summary,
		&links,
		&source,
	); err != nil {
		return nil, err
	}

	rec.Cover = cover.String
	rec.LocalCover = localCover.String
	rec.Score = score.Float64
	rec.Area = area.String
	rec.Language = language.String
	rec.Category = category.String
	rec.ReleaseDate = release.String
	rec.Duration = duration.String
	rec.Director = director.String
	rec.Actors = actors.String
	rec.Summary = summary.String
	rec.Source = source.String

	parsed, err := ParseDownloadLinks(links.String)
	if err != nil {
		return nil, &ParseError{ID: rec.ID, Payload: links.String, Err: err}
	}
	rec.DownloadLinks = parsed
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern that matches value as a literal
// substring. Use with ESCAPE '\'.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
