package main

import (
	"log"

	"github.com/duochat/duochat/config"
	"github.com/duochat/duochat/db"
	"github.com/duochat/duochat/mailingservices"
	"github.com/duochat/duochat/realtime"
	"github.com/duochat/duochat/server"
	"github.com/duochat/duochat/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	mailgunClient := &mailingservices.Mailgun{}
	mailgunClient.Init()

	gormDB := db.GetDB(conf)
	authRepo := db.NewAuthRepo(gormDB)
	conversationRepo := db.NewConversationRepo(gormDB)
	messageRepo := db.NewMessageRepo(gormDB)

	hub := realtime.NewHub()

	authService := services.NewAuthService(authRepo, mailgunClient, conf)
	conversationService := services.NewConversationService(conversationRepo, authRepo, conf)
	messageService := services.NewMessageService(messageRepo, conversationRepo, hub, conf)
	mediaService := services.NewMediaService(authRepo, conf)

	s := &server.Server{
		Config:              conf,
		Mail:                mailgunClient,
		AuthRepository:      authRepo,
		AuthService:         authService,
		ConversationService: conversationService,
		MessageService:      messageService,
		MediaService:        mediaService,
		Hub:                 hub,
		DB:                  *gormDB,
	}

	s.Start()
}
