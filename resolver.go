package unionfs

import "os"

// findFile is the Branch Resolver: given a logical path and
// an intent, it returns the concrete path that satisfies the lookup plus an
// origin tag, triggering copy-up when intent requests it.
//
// Algorithm:
//  1. Compute the whiteout path; if it exists, the entry is logically
//     deleted regardless of RO presence.
//  2. Compute the RW path; if it exists, return (RW, ReadWrite) unless
//     intent is MustRO.
//  3. Compute the RO path; if it exists: IntentAny/MustRO return
//     (RO, ReadOnly); IntentCreateCopyup triggers Copy-up Engine and
//     returns (RW, ReadWriteCopyup).
//  4. Otherwise NotFound.
//
// IntentMustRW, on falling through step 2 without a match, reports
// NotFound even when RO has the entry: it ignores the RO branch entirely.
// The Directory Merger does not go through findFile; it reads both branch
// directories itself.
func (u *UnionFS) findFile(logical string, intent Intent) (ConcretePath, OriginTag, error) {
	logical = cleanLogicalPath(logical)

	if intent == IntentAny {
		if r, ok := u.cache.getResolution(logical); ok {
			return r.concrete, r.origin, nil
		}
		if u.cache.isNegative(logical) {
			return ConcretePath{}, OriginNone, newError(KindNotFound, "find_file", logical, os.ErrNotExist)
		}
	}

	u.mu.RLock()
	ro, rw := u.ro, u.rw
	u.mu.RUnlock()

	// Step 1: whiteout always hides, regardless of RO presence.
	if logical != "/" && rw != nil {
		whPath, err := toWhiteout(logical)
		if err == nil {
			if _, statErr := rw.Stat(whPath.Path); statErr == nil {
				return ConcretePath{}, OriginNone, newError(KindNotFound, "find_file", logical, os.ErrNotExist)
			}
		}
	}

	// Step 2: RW shadows RO, unless caller demands RO specifically.
	if rw != nil && intent != IntentMustRO {
		if _, err := rw.Stat(logical); err == nil {
			cp := ConcretePath{Branch: BranchReadWrite, Path: logical}
			if intent == IntentAny {
				u.cache.putResolution(logical, resolution{concrete: cp, origin: OriginReadWrite})
			}
			return cp, OriginReadWrite, nil
		} else if !os.IsNotExist(err) {
			return ConcretePath{}, OriginNone, newError(KindIO, "find_file", logical, err)
		}
	}

	// Step 3: fall through to RO.
	if ro != nil {
		if _, err := ro.Stat(logical); err == nil {
			switch intent {
			case IntentAny, IntentMustRO:
				cp := ConcretePath{Branch: BranchReadOnly, Path: logical}
				if intent == IntentAny {
					u.cache.putResolution(logical, resolution{concrete: cp, origin: OriginReadOnly})
				}
				return cp, OriginReadOnly, nil
			case IntentCreateCopyup:
				cp, err := u.copyup(logical)
				if err != nil {
					return ConcretePath{}, OriginNone, err
				}
				u.cache.putResolution(logical, resolution{concrete: cp, origin: OriginReadWrite})
				return cp, OriginReadWriteCopyup, nil
			}
		} else if !os.IsNotExist(err) {
			return ConcretePath{}, OriginNone, newError(KindIO, "find_file", logical, err)
		}
	}

	if intent == IntentAny {
		u.cache.putNegative(logical)
	}
	return ConcretePath{}, OriginNone, newError(KindNotFound, "find_file", logical, os.ErrNotExist)
}
