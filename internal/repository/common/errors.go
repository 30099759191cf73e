package common

import "errors"

// ErrNoRowsAffected возвращается условным UPDATE'ом, когда строка не
// соответствовала ожидаемому статусу. Сервисный слой трактует это как
// недопустимый переход, а не как молчаливый успех.
var ErrNoRowsAffected = errors.New("no rows affected")
