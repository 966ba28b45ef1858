package model

// ToFloat coerces a hyperparameter value to float64. Grid values arrive as
// untyped interface{} from Go literals or YAML, so ints are accepted too.
func ToFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// ToInt coerces a hyperparameter value to int. Whole-valued floats are
// accepted because YAML decoding does not distinguish them.
func ToInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
	}
	return 0, false
}

// ToBool coerces a hyperparameter value to bool.
func ToBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
