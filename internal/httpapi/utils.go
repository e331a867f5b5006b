package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuqie6/GitQuest/internal/dto"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorDTO{Error: msg})
}

// parseIntQuery 读取整数查询参数，缺省取 def，超出 [lo, hi] 报错
func parseIntQuery(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("参数 %s 不是整数", key)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("参数 %s 超出范围 [%d, %d]", key, lo, hi)
	}
	return v, nil
}

// validUserID 与数据源文件名规则一致
func validUserID(user string) bool {
	if user == "" || len(user) > 100 {
		return false
	}
	return !strings.ContainsAny(user, `/\`) && !strings.HasPrefix(user, ".")
}
