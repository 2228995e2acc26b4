package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/ridge/must/v2"
	"github.com/rs/cors"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	pagenoteAuth "github.com/pagenote-project/pagenote/grpc/auth"
	"github.com/pagenote-project/pagenote/grpc/impl"
	"github.com/pagenote-project/pagenote/grpc/impl/font"
	"github.com/pagenote-project/pagenote/grpc/impl/repository"
	"github.com/pagenote-project/pagenote/grpc/impl/secret"
	"github.com/pagenote-project/pagenote/grpc/impl/storage"
	"github.com/pagenote-project/pagenote/grpc/viewer"
	"github.com/pagenote-project/pagenote/pkg/config"
	"github.com/pagenote-project/pagenote/pkg/env"
	yaHttp "github.com/pagenote-project/pagenote/pkg/http"
)

func main() {
	env.Load()

	viewerConfig := must.OK1(config.Load(os.Getenv("VIEWER_CONFIG_PATH")))

	// An empty path keeps the built-in bitmap face for overlay labels.
	fontProvider := must.OK1(font.New(os.Getenv("LABEL_FONT_PATH"), 12))

	ctx := context.Background()
	projectID := env.RequiredStringVariable("GCP_PROJECT_ID")

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		log.Fatalf("error initializing app: %v", err)
	}

	firebaseClient, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("error getting Auth client: %v", err)
	}
	authClient := pagenoteAuth.New(firebaseClient, env.ListVariable("ALLOWED_EMAIL_DOMAINS"))

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		log.Fatalf("error getting Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	// Signing URLs needs a service account key unless the runtime identity can sign blobs.
	var storageOptions []option.ClientOption
	if credentials := storageCredentials(ctx, projectID); len(credentials) > 0 {
		storageOptions = append(storageOptions, option.WithCredentialsJSON(credentials))
	}
	gcsClient := must.OK1(gcs.NewClient(ctx, storageOptions...))
	defer gcsClient.Close()

	server := must.OK1(impl.New(
		repository.NewFirestore(firestoreClient),
		impl.Storage{
			Client:         storage.New(gcsClient, time.Second/2 /* =backoffDuration */),
			DocumentBucket: env.RequiredStringVariable("GCP_DOCUMENT_STORAGE"),
			SignedURLTTL:   signedURLTTL(),
		},
		viewerConfig,
		fontProvider,
	))

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(pagenoteAuth.UnaryInterceptor(authClient)),
		grpc.MaxRecvMsgSize(4*1024*1024),
	)
	viewer.RegisterViewerServer(grpcServer, server)

	uiURL := env.RequiredStringVariable("PAGENOTE_UI_URL")
	api := cors.New(cors.Options{
		AllowedOrigins:   []string{uiURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(pagenoteAuth.Middleware(authClient)(server.Routes()))

	go runGrpcServer(grpcServer, env.RequiredIntVariable("GRPC_PORT"))
	runWebServer(grpcServer, api, env.RequiredIntVariable("WEB_PORT"), uiURL)
}

func runGrpcServer(grpcServer *grpc.Server, port int) {
	log.Printf("PageNote gRPC server listening on port %d", port)
	must.OK(grpcServer.Serve(must.OK1(net.Listen("tcp", fmt.Sprintf(":%d", port)))))
}

// runWebServer serves the REST API, gRPC-web and the viewer's static files on one port.
func runWebServer(grpcServer *grpc.Server, api http.Handler, port int, url string) {
	grpcwebServer := grpcweb.WrapServer(grpcServer,
		grpcweb.WithOriginFunc(func(origin string) bool {
			return origin == url
		}),
	)

	staticFileDir := env.RequiredStringVariable("PAGENOTE_STATIC_FILE_DIR")
	defaultHandler := func(w http.ResponseWriter, r *http.Request) {
		if grpcwebServer.IsGrpcWebRequest(r) || grpcwebServer.IsAcceptableGrpcCorsRequest(r) {
			grpcwebServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, staticFileDir+"/index.html")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", defaultHandler)
	mux.Handle("/api/", api)
	mux.HandleFunc("/assets/", yaHttp.HandleFileServer(http.FileServer(http.Dir(staticFileDir))))
	log.Printf("PageNote web server listening on port %d", port)
	must.OK(http.ListenAndServe(fmt.Sprintf(":%d", port), mux))
}

// storageCredentials returns the service account key used to sign PDF URLs.
// A direct value is preferred for local development.
func storageCredentials(ctx context.Context, projectID string) []byte {
	if credentials := os.Getenv("STORAGE_CREDENTIALS_JSON"); credentials != "" {
		return []byte(credentials)
	}
	secretName := os.Getenv("STORAGE_CREDENTIALS_SECRET_NAME")
	if secretName == "" {
		return nil
	}

	secretmanagerClient := must.OK1(secretmanager.NewClient(ctx))
	defer secretmanagerClient.Close()
	return must.OK1(secret.Latest(ctx, secretmanagerClient, projectID, secretName))
}

func signedURLTTL() time.Duration {
	minutes, err := strconv.Atoi(env.StringVariable("SIGNED_URL_TTL_MINUTES", "15"))
	if err != nil || minutes <= 0 {
		log.Printf("Invalid SIGNED_URL_TTL_MINUTES, using 15 minutes")
		return 15 * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}
