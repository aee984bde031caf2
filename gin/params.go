package gin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jeja2023/tp/errors"
)

func queryBool(key string, c *gin.Context) (bool, bool, error) {
	v := c.Query(key)
	if v == "" {
		return false, false, nil
	}

	b, err := strconv.ParseBool(v)
	return b, true, err
}

func paramID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id "+c.Param("id"), errors.BadRequest())
	}
	return id, nil
}
