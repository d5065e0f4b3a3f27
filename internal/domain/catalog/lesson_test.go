package catalog

import (
	"testing"

	"github.com/google/uuid"
)

func TestSortLessonsByOrderThenID(t *testing.T) {
	a := &Lesson{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), Order: 2}
	b := &Lesson{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Order: 2}
	c := &Lesson{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000c"), Order: 1}
	lessons := []*Lesson{a, b, c}
	SortLessons(lessons)
	if lessons[0] != c || lessons[1] != b || lessons[2] != a {
		t.Fatalf("unexpected order: %v %v %v", lessons[0].ID, lessons[1].ID, lessons[2].ID)
	}
}
