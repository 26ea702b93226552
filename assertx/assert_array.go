package assertx

import (
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

type tHelper interface {
	Helper()
}

var spewConfig = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	DisableMethods:          true,
	MaxDepth:                10,
}

// ElementsMatch asserts that listA and listB hold the same elements in any order. Elements are
// compared with cmp.Equal and opts, and a duplicated element must appear as often in both lists.
//
// assertx.ElementsMatch(t, res.InsertedIDs, storedIDs)
func ElementsMatch[E any](t assert.TestingT, listA, listB []E, opts ...cmp.Option) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	extraA, extraB := diffLists(listA, listB, opts...)
	if len(extraA) == 0 && len(extraB) == 0 {
		return true
	}
	return assert.Fail(t, formatListDiff(listA, listB, extraA, extraB))
}

// diffLists returns the elements only found in listA and those only found in listB. Each
// occurrence is matched at most once.
func diffLists[E any](listA, listB []E, opts ...cmp.Option) (extraA, extraB []E) {
	matched := make([]bool, len(listB))
	for _, a := range listA {
		found := false
		for j, b := range listB {
			if !matched[j] && cmp.Equal(a, b, opts...) {
				matched[j], found = true, true
				break
			}
		}
		if !found {
			extraA = append(extraA, a)
		}
	}

	extraB = lo.Filter(listB, func(_ E, j int) bool { return !matched[j] })
	return extraA, extraB
}

func formatListDiff[E any](listA, listB, extraA, extraB []E) string {
	var msg strings.Builder
	msg.WriteString("elements differ")
	if len(extraA) > 0 {
		msg.WriteString("\n\nextra elements in list A:\n")
		msg.WriteString(spewConfig.Sdump(extraA))
	}
	if len(extraB) > 0 {
		msg.WriteString("\n\nextra elements in list B:\n")
		msg.WriteString(spewConfig.Sdump(extraB))
	}
	msg.WriteString("\n\nlistA:\n")
	msg.WriteString(spewConfig.Sdump(listA))
	msg.WriteString("\n\nlistB:\n")
	msg.WriteString(spewConfig.Sdump(listB))
	return msg.String()
}
