package resolve

import (
	"binding-resolver/internal/oracle"
	"binding-resolver/internal/typemodel"
)

// betterParameter reports whether a challenger (newViewType,
// newParameter) beats the incumbent (oldViewType, oldParameter) as a
// setter for the given argument type. Both view types are assumed to
// match the targeted view.
//
// The decision is an ordered chain:
//  1. No incumbent: any convertible challenger wins.
//  2. Non-convertible challengers lose outright.
//  3. Both at the assignable tier: at the same view type, the more
//     specific parameter wins; across view types, the more specific
//     view wins.
//  4. Same view type: lower (or equal) conversion priority wins.
//  5. Equal priority across view types: the more specific view wins.
//  6. Otherwise: lower (or equal) conversion priority wins.
//
// Note the tie-break direction differs from betterReturn.
func (r *Resolver) betterParameter(argument, newViewType, newParameter,
	oldViewType, oldParameter *typemodel.Class, imports map[string]string) bool {
	if oldParameter == nil {
		// Just validate that the argument converts at all.
		return r.oracle.Priority(argument, newParameter, imports) >= 0
	}

	newConversion := r.oracle.Priority(argument, newParameter, imports)
	if newConversion < 0 {
		return false
	}

	isSameViewType := oldViewType.Equals(newViewType)
	isBetterViewType := r.universe.AssignableFrom(oldViewType, newViewType)

	oldConversion := r.oracle.Priority(argument, oldParameter, imports)
	if oldConversion == oracle.Assignable && newConversion == oracle.Assignable {
		if isSameViewType {
			// More specific parameter is better.
			return r.universe.AssignableFrom(oldParameter, newParameter)
		}

		return isBetterViewType
	}

	if isSameViewType {
		return newConversion <= oldConversion
	}

	if newConversion == oldConversion {
		return isBetterViewType
	}

	return newConversion <= oldConversion
}

// betterReturn reports whether a challenger getter (newViewType,
// newReturnType) beats the incumbent for the expected value type. The
// chain mirrors betterParameter except at the assignable tier on the
// same view type, where the more general return type wins: a broader
// getter is safely narrowable by the caller.
func (r *Resolver) betterReturn(expected, newViewType, newReturnType,
	oldViewType, oldReturnType *typemodel.Class, imports map[string]string) bool {
	if oldReturnType == nil {
		return r.oracle.Priority(newReturnType, expected, imports) >= 0
	}

	newConversion := r.oracle.Priority(newReturnType, expected, imports)
	if newConversion < 0 {
		return false
	}

	isSameViewType := oldViewType.Equals(newViewType)
	isBetterViewType := r.universe.AssignableFrom(oldViewType, newViewType)

	oldConversion := r.oracle.Priority(oldReturnType, expected, imports)
	if oldConversion == oracle.Assignable && newConversion == oracle.Assignable {
		if isSameViewType {
			// More generic getter is better (fairly arbitrary, but
			// consistent).
			return r.universe.AssignableFrom(newReturnType, oldReturnType)
		}

		return isBetterViewType
	}

	if isSameViewType {
		return newConversion <= oldConversion
	}

	if newConversion == oldConversion {
		return isBetterViewType
	}

	return newConversion <= oldConversion
}
