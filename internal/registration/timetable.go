package registration

import (
	"sort"

	"github.com/noah-isme/stars-api/internal/models"
)

// buildTimetable assembles a student's weekly view from held sections and
// computes every overlapping lesson pair across different sections. Clashes
// are retained for reporting; holding clashing sections is allowed.
func buildTimetable(matricNo string, sections []*sectionState, totalAU int) models.Timetable {
	sort.Slice(sections, func(i, j int) bool {
		a, b := sections[i].key(), sections[j].key()
		if a.code != b.code {
			return a.code < b.code
		}
		return a.index < b.index
	})

	perSection := make([][]models.TimetableEntry, len(sections))
	var entries []models.TimetableEntry
	for i, sec := range sections {
		rec := sec.record()
		for _, lesson := range rec.Lessons {
			entry := models.TimetableEntry{CourseCode: rec.CourseCode, Index: rec.Index, Lesson: lesson}
			perSection[i] = append(perSection[i], entry)
			entries = append(entries, entry)
		}
	}

	var conflicts []models.LessonConflict
	for i := 0; i < len(perSection); i++ {
		for j := i + 1; j < len(perSection); j++ {
			for _, a := range perSection[i] {
				for _, b := range perSection[j] {
					if a.Lesson.Overlaps(b.Lesson) {
						conflicts = append(conflicts, models.LessonConflict{First: a, Second: b})
					}
				}
			}
		}
	}

	return models.Timetable{
		MatricNo:  matricNo,
		Entries:   entries,
		Conflicts: conflicts,
		TotalAU:   totalAU,
	}
}
