package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateTrack 同一个 Spotify ID 已存在
var ErrDuplicateTrack = errors.New("track already exists")

// mysqlDuplicateEntry ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
