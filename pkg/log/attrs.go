package log

import "log/slog"

func Scenario(name string) slog.Attr {
	return slog.String("scenario", name)
}

func InstanceID[T ~string](id T) slog.Attr {
	return slog.String("instance_id", string(id))
}

func ActivityID[T ~string](id T) slog.Attr {
	return slog.String("activity_id", string(id))
}

func TaskID[T ~string](id T) slog.Attr {
	return slog.String("task_id", string(id))
}

func Message(name string) slog.Attr {
	return slog.String("message", name)
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
