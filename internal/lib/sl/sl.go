package sl

import (
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(mod),
	}
}

// Secret logs only the edges of a sensitive value.
func Secret(key, value string) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(mask(value)),
	}
}

func mask(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:3] + "..." + value[len(value)-3:]
}
