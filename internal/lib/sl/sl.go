// Package sl содержит атрибуты slog, общие для всех сервисов магазина.
package sl

import "log/slog"

// Err атрибут "error" с текстом ошибки. nil записывается как пустая строка.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Op атрибут "op" с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
