package action

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCancelPredicateWildcardMatchesEverything verifies the (zero id,
// zero stamp) quadrant: "cancel every eligible goal".
func TestCancelPredicateWildcardMatchesEverything(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("zero id and zero stamp always matches", prop.ForAll(
		func(idBytes []uint8, sec int32, nanosec uint32) bool {
			var id GoalId
			copy(id[:], idBytes)
			acceptedTime := Timestamp{Sec: sec, Nanosec: nanosec}
			req := CancelGoalRequest{GoalInfo: GoalInfo{GoalId: GoalIdZero, Stamp: TimestampZero}}
			return cancelPredicate(req, id, acceptedTime)
		},
		gen.SliceOfN(16, gen.UInt8Range(0, 255)),
		gen.Int32Range(0, 1_000_000),
		gen.UInt32Range(0, 999_999_999),
	))

	properties.TestingRun(t)
}

// TestCancelPredicateSpecificIdIgnoresStamp verifies that a request
// naming a specific goal id matches that goal regardless of stamp,
// and never matches a different goal when the stamp is the wildcard.
func TestCancelPredicateSpecificIdIgnoresStamp(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("specific id matches itself regardless of stamp", prop.ForAll(
		func(idBytes []uint8, reqSec int32, reqNanosec uint32, accSec int32, accNanosec uint32) bool {
			var id GoalId
			copy(id[:], idBytes)
			req := CancelGoalRequest{GoalInfo: GoalInfo{GoalId: id, Stamp: Timestamp{Sec: reqSec, Nanosec: reqNanosec}}}
			acceptedTime := Timestamp{Sec: accSec, Nanosec: accNanosec}
			return cancelPredicate(req, id, acceptedTime)
		},
		gen.SliceOfN(16, gen.UInt8Range(0, 255)),
		gen.Int32Range(0, 1_000_000),
		gen.UInt32Range(0, 999_999_999),
		gen.Int32Range(0, 1_000_000),
		gen.UInt32Range(0, 999_999_999),
	))

	properties.Property("specific id never matches a different id when stamp is zero", prop.ForAll(
		func(wantBytes []uint8, otherBytes []uint8, accSec int32, accNanosec uint32) bool {
			var wantId, otherId GoalId
			copy(wantId[:], wantBytes)
			copy(otherId[:], otherBytes)
			if wantId == otherId {
				return true // not the case under test
			}
			req := CancelGoalRequest{GoalInfo: GoalInfo{GoalId: wantId, Stamp: TimestampZero}}
			acceptedTime := Timestamp{Sec: accSec, Nanosec: accNanosec}
			return !cancelPredicate(req, otherId, acceptedTime)
		},
		gen.SliceOfN(16, gen.UInt8Range(0, 255)),
		gen.SliceOfN(16, gen.UInt8Range(0, 255)),
		gen.Int32Range(0, 1_000_000),
		gen.UInt32Range(0, 999_999_999),
	))

	properties.TestingRun(t)
}

// TestCancelPredicateTimeBoundIsStrict verifies the (zero id, non-zero
// stamp) quadrant reduces exactly to Timestamp.Before, strict less
// than (see DESIGN.md decision 4).
func TestCancelPredicateTimeBoundIsStrict(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("matches iff acceptedTime is strictly before a non-zero stamp", prop.ForAll(
		func(stampSec int32, stampNanosec uint32, accSec int32, accNanosec uint32) bool {
			stamp := Timestamp{Sec: stampSec, Nanosec: stampNanosec}
			if stamp.IsZero() {
				return true // wildcard stamp is covered by the other properties
			}
			acceptedTime := Timestamp{Sec: accSec, Nanosec: accNanosec}
			req := CancelGoalRequest{GoalInfo: GoalInfo{GoalId: GoalIdZero, Stamp: stamp}}
			return cancelPredicate(req, NewGoalId(), acceptedTime) == acceptedTime.Before(stamp)
		},
		gen.Int32Range(1, 1_000_000),
		gen.UInt32Range(0, 999_999_999),
		gen.Int32Range(0, 1_000_000),
		gen.UInt32Range(0, 999_999_999),
	))

	properties.TestingRun(t)
}

// TestCancelPredicateExcludesExactTimestampMatch directly checks that
// a goal accepted exactly at the requested stamp is not matched.
func TestCancelPredicateExcludesExactTimestampMatch(t *testing.T) {
	stamp := Timestamp{Sec: 42, Nanosec: 7}
	req := CancelGoalRequest{GoalInfo: GoalInfo{GoalId: GoalIdZero, Stamp: stamp}}
	if cancelPredicate(req, NewGoalId(), stamp) {
		t.Fatal("expected strict less-than: equal timestamps must not match")
	}
}

// TestInsertOrderedMaintainsAscendingGoalIdOrder verifies the registry
// iterates in deterministic, byte-ascending GoalId order regardless of
// insertion order, so status broadcasts are reproducible.
func TestInsertOrderedMaintainsAscendingGoalIdOrder(t *testing.T) {
	s := &AsyncActionServer[int, int, int]{goals: make(map[GoalId]*goalRecord[int, int])}

	ids := make([]GoalId, 5)
	for i := range ids {
		ids[i] = NewGoalId()
		s.goals[ids[i]] = &goalRecord[int, int]{status: StatusAccepted}
	}
	// insert in reverse order
	for i := len(ids) - 1; i >= 0; i-- {
		s.insertOrdered(ids[i])
	}

	for i := 1; i < len(s.order); i++ {
		if compareGoalId(s.order[i-1], s.order[i]) >= 0 {
			t.Fatalf("registry order not ascending at index %d: %v then %v", i, s.order[i-1], s.order[i])
		}
	}
}
