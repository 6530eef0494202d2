package youtube

import "fmt"

// ParseISODuration converts an ISO 8601 duration as returned by the Data API
// (for example "PT1H2M30S") into seconds. Calendar components larger than a
// week are rejected since video lengths never carry them.
func ParseISODuration(s string) (int, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}

	total := 0
	num := 0
	hasNum := false
	inTime := false
	components := 0
	for _, r := range s[1:] {
		switch {
		case r == 'T':
			if inTime {
				return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
			}
			inTime = true
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			hasNum = true
		default:
			if !hasNum {
				return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
			}
			switch {
			case r == 'W' && !inTime:
				total += num * 7 * 86400
			case r == 'D' && !inTime:
				total += num * 86400
			case r == 'H' && inTime:
				total += num * 3600
			case r == 'M' && inTime:
				total += num * 60
			case r == 'S' && inTime:
				total += num
			default:
				return 0, fmt.Errorf("unsupported component %q in duration %q", string(r), s)
			}
			num = 0
			hasNum = false
			components++
		}
	}
	if hasNum {
		return 0, fmt.Errorf("trailing number in duration %q", s)
	}
	if components == 0 {
		return 0, fmt.Errorf("empty ISO 8601 duration %q", s)
	}
	return total, nil
}
