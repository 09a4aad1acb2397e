package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vesper_chat_server/internal/config"
	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/dao/memory"
	"vesper_chat_server/internal/dao/mysql"
	myredis "vesper_chat_server/internal/dao/redis"
	"vesper_chat_server/internal/handler"
	"vesper_chat_server/internal/https_server"
	"vesper_chat_server/internal/infrastructure/logger"
	"vesper_chat_server/internal/infrastructure/mq"
	"vesper_chat_server/internal/service"
	"vesper_chat_server/internal/service/chat"
	"vesper_chat_server/pkg/util/jwt"
	"vesper_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化存储引擎
	var repos *dao.Repositories
	switch conf.StorageConfig.Engine {
	case "mysql":
		repos = mysql.Init(conf.ChatConfig.RetentionCap)
		zap.L().Info("MySQL 存储初始化成功")
	default:
		repos = memory.Init(conf.ChatConfig.RetentionCap)
		zap.L().Info("内存存储初始化成功")
	}

	// 4. 初始化 Redis(可选)
	myredis.Init()
	if myredis.Enabled() {
		zap.L().Info("Redis 初始化成功")
	}

	// 5. 初始化 JWT 和消息 ID 生成器
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.TokenExpiryHours)
	snowflake.Init(conf.SnowflakeConfig.MachineID)

	// 6. 初始化消息归档(可选)
	var archiver chat.MessageArchiver
	kafkaArchiver := mq.NewKafkaArchiver()
	if kafkaArchiver != nil {
		if err := mq.CreateTopic(); err != nil {
			zap.L().Warn("归档主题创建失败", zap.Error(err))
		}
		archiver = kafkaArchiver
		zap.L().Info("Kafka 归档初始化成功")
	}

	// 7. 组装 Service / Handler,启动聊天中枢
	services := service.NewServices(repos, archiver)
	go services.Hub.Start()
	zap.L().Info("聊天中枢启动成功")

	// 8. 初始化参数校验翻译器和 HTTP 服务器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("validator 翻译器初始化失败", zap.Error(err))
	}
	handlers := handler.NewHandlers(services)
	engine := https_server.Init(handlers)

	host := conf.MainConfig.Host
	port := conf.MainConfig.Port
	go func() {
		if err := engine.Run(fmt.Sprintf("%s:%d", host, port)); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务器启动", zap.String("host", host), zap.Int("port", port))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	if kafkaArchiver != nil {
		kafkaArchiver.Close()
	}
	services.Hub.Close()
	zap.L().Info("服务器已关闭")
}
