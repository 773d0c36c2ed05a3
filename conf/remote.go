package conf

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/rc/schema"
	"github.com/txix-open/jsonschema"
)

func init() {
	schema.CustomGenerators.Register("logLevel", func(field reflect.StructField, t *jsonschema.Schema) {
		t.Type = "string"
		t.Enum = []interface{}{"debug", "info", "error", "fatal"}
	})
}

type Remote struct {
	Redis      *Redis     `schema:"Настройки Redis,обязательно, если включен учет срабатываний ограничений"`
	Http       Http       `schema:"Настройки HTTP"`
	Logging    Logging    `schema:"Настройки логирования"`
	Caching    Caching    `schema:"Настройки кеширования"`
	RateLimits RateLimits `schema:"Настройки ограничений на публикации и комментарии"`
}

type Http struct {
	MaxRequestBodySizeInMb int64 `valid:"required" schema:"Максимальная длинна тела запроса,в мегабайтах"`
	ProxyTimeoutInSec      int   `valid:"required" schema:"Таймаут на проксирование,в секундах"`
}

type Logging struct {
	LogLevel         log.Level `schemaGen:"logLevel" schema:"Уровень логирования,логирование запросов осуществляется на уровне debug"`
	RequestLogEnable bool      `schema:"Включить логирование запросов"`
	BodyLogEnable    bool      `schema:"Включить логирование тел запросов и ответов,должно быть включено логирование запросов"`
}

type Caching struct {
	AuthenticationDataInSec int `valid:"required" schema:"Время кеширования данных аутентификации,в секундах"`
}

type RateLimits struct {
	PostIntervalInSec      int      `schema:"Интервал между публикациями,в секундах, по умолчанию 30"`
	MaxPostsPer24Hours     int      `schema:"Максимум публикаций за сутки,по умолчанию 5"`
	CommentIntervalInSec   int      `schema:"Интервал между комментариями,в секундах, по умолчанию 8"`
	CommentKarmaThreshold  *int     `schema:"Порог кармы,пользователи с кармой ниже порога ограничены 4 комментариями за 30 минут; null отключает правило"`
	CommentDownvoteRatio   *float64 `schema:"Порог доли отрицательных голосов,от 0 до 1; null отключает правило"`
	ExemptPostAuthors      bool     `schema:"Не ограничивать автора под его собственными публикациями"`
	RecordLimitHits        bool     `schema:"Учет срабатываний ограничений,счетчики в Redis, требуется Redis"`
}

type Redis struct {
	Address  string         `schema:"Адрес,обязателено, если sentinel не указан"`
	Username string         `schema:"Имя пользовтаеля"`
	Password string         `schema:"Пароль"`
	Sentinel *RedisSentinel `schema:"Настройки sentinel,обязательно, если address не указан"`
}

type RedisSentinel struct {
	Addresses  []string `valid:"required" schema:"Адреса нод в кластере"`
	MasterName string   `valid:"required" schema:"Имя мастера"`
	Username   string   `schema:"Имя пользовтаеля в sentinel"`
	Password   string   `schema:"Пароль в sentinel"`
}

func (r Remote) Validate() error {
	if r.RateLimits.RecordLimitHits && r.Redis == nil {
		return errors.New("redis is required if recordLimitHits is enabled")
	}
	if r.Redis != nil && r.Redis.Sentinel == nil && r.Redis.Address == "" {
		return errors.New("invalid redis config. sentinel or address are required")
	}
	return nil
}
