package log

import "log/slog"

func Workflow(name string) slog.Attr {
	return slog.String("workflow", name)
}

func Step[T ~string](name T) slog.Attr {
	return slog.String("step", string(name))
}

func Language(tag string) slog.Attr {
	return slog.String("language", tag)
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Level(level int) slog.Attr {
	return slog.Int("level", level)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
